// Package types defines the entities exchanged between the sorrycast
// backend and the client-side stores: detected messages, platform
// connections, and the apology artifact a wizard run produces.
package types

// Platform identifies an external account kind.
type Platform string

const (
	PlatformSlack   Platform = "slack"
	PlatformLINE    Platform = "line"
	PlatformDiscord Platform = "discord"
	PlatformYouTube Platform = "youtube"
)

// IsMessaging reports whether the platform can be the origin of a
// detected message. YouTube is publish-only.
func (p Platform) IsMessaging() bool {
	switch p {
	case PlatformSlack, PlatformLINE, PlatformDiscord:
		return true
	}
	return false
}

func (p Platform) Valid() bool {
	return p.IsMessaging() || p == PlatformYouTube
}

// AngerLevel is the backend's ordinal severity rating for a message.
type AngerLevel string

const (
	AngerLow    AngerLevel = "low"
	AngerMedium AngerLevel = "medium"
	AngerHigh   AngerLevel = "high"
)

// DetectedMessage is a message the backend detection pipeline flagged as
// anger-bearing. The client only ever mutates the Processed flag, and
// only after a successful share.
type DetectedMessage struct {
	ID              string     `json:"id"`
	Platform        Platform   `json:"platform"`
	Sender          string     `json:"sender"`
	OriginalMessage string     `json:"originalMessage"`
	Summary         string     `json:"summary"`
	AngerLevel      AngerLevel `json:"angerLevel"`
	Timestamp       string     `json:"timestamp"`
	ChannelID       string     `json:"channelId,omitempty"`
	Processed       bool       `json:"processed"`
}

// ApologyStatus tracks an artifact through its forward-only lifecycle.
type ApologyStatus string

const (
	StatusDraft      ApologyStatus = "draft"
	StatusGenerating ApologyStatus = "generating"
	StatusReady      ApologyStatus = "ready"
	StatusShared     ApologyStatus = "shared"
)

// Photo is a user-supplied image payload. MIME is the declared media
// type; validation happens in the wizard before any network call.
type Photo struct {
	Name string
	MIME string
	Data []byte
}

// ApologyData is the working product of one wizard run. VideoURL is set
// only after both ApologyText and UserPhoto are present; YouTubeURL only
// after VideoURL.
type ApologyData struct {
	MessageID   string        `json:"messageId"`
	ApologyText string        `json:"apologyText"`
	UserPhoto   *Photo        `json:"-"`
	VideoURL    string        `json:"videoUrl,omitempty"`
	YouTubeURL  string        `json:"youtubeUrl,omitempty"`
	Status      ApologyStatus `json:"status"`
}

// PlatformConnection is the linkage state to one external account.
// Tokens are opaque to the client; the backend forwards them itself.
type PlatformConnection struct {
	Platform     Platform `json:"platform"`
	Connected    bool     `json:"connected"`
	UserID       string   `json:"userId,omitempty"`
	AccessToken  string   `json:"accessToken,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	ExpiresAt    int64    `json:"expiresAt,omitempty"`
}

// Analysis is the backend's re-evaluation of a single message.
type Analysis struct {
	Summary    string     `json:"summary"`
	AngerLevel AngerLevel `json:"angerLevel"`
}

// Stats are the backend-side aggregate counters shown on the dashboard.
type Stats struct {
	TotalDetected int            `json:"totalDetected"`
	TotalResolved int            `json:"totalResolved"`
	ByPlatform    map[string]int `json:"byPlatform,omitempty"`
}
