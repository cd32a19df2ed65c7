package auth

import (
	"fmt"

	"golang.org/x/oauth2"

	"sorrycast/pkg/config"
	"sorrycast/pkg/types"
)

// oauthEndpoints holds the authorize/token endpoints per platform. Only
// the authorize URL is used locally; the backend performs the exchange.
var oauthEndpoints = map[types.Platform]oauth2.Endpoint{
	types.PlatformSlack: {
		AuthURL:  "https://slack.com/oauth/v2/authorize",
		TokenURL: "https://slack.com/api/oauth.v2.access",
	},
	types.PlatformLINE: {
		AuthURL:  "https://access.line.me/oauth2/v2.1/authorize",
		TokenURL: "https://api.line.me/oauth2/v2.1/token",
	},
	types.PlatformDiscord: {
		AuthURL:  "https://discord.com/oauth2/authorize",
		TokenURL: "https://discord.com/api/oauth2/token",
	},
	types.PlatformYouTube: {
		AuthURL:  "https://accounts.google.com/o/oauth2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	},
}

var defaultScopes = map[types.Platform][]string{
	types.PlatformSlack:   {"chat:write", "channels:history"},
	types.PlatformLINE:    {"profile", "openid"},
	types.PlatformDiscord: {"identify", "messages.read"},
	types.PlatformYouTube: {"https://www.googleapis.com/auth/youtube.upload"},
}

// AuthorizeURL builds the browser URL that starts the OAuth flow for a
// platform. The user authorizes there and pastes the redirect code back
// into the CLI, which hands it to Store.Connect.
func AuthorizeURL(platform types.Platform, cc config.OAuthClientConfig, state string) (string, error) {
	endpoint, ok := oauthEndpoints[platform]
	if !ok {
		return "", fmt.Errorf("no OAuth endpoint for platform %q", platform)
	}
	if cc.ClientID == "" {
		return "", fmt.Errorf("no OAuth client configured for platform %q", platform)
	}

	scopes := cc.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes[platform]
	}

	conf := &oauth2.Config{
		ClientID:    cc.ClientID,
		RedirectURL: cc.RedirectURL,
		Scopes:      scopes,
		Endpoint:    endpoint,
	}

	var opts []oauth2.AuthCodeOption
	if platform == types.PlatformYouTube {
		// YouTube uploads need a refresh token on the backend.
		opts = append(opts, oauth2.AccessTypeOffline)
	}

	return conf.AuthCodeURL(state, opts...), nil
}
