package botbus

// Message is the contract for payloads traveling the bus. Implementations are
// immutable once constructed and must serialize through the configured Codec
// with a "type" field equal to Kind().
type Message interface {
	// Kind is the wire discriminator for this payload variant.
	Kind() string
	// CacheKey names the latest-value cache slot for this message kind.
	// Empty means transient: the message fans out but is never cached.
	CacheKey() string
}

// Wire discriminators for the built-in event set.
const (
	KindSongProgress   = "song/progress"
	KindSongCurrent    = "song/current"
	KindYouTubeCurrent = "youtube/current"
	KindYouTubeVolume  = "youtube/volume"
	KindFirework       = "firework"
	KindPing           = "ping"
)

// TrackID identifies a track in the player's catalogue.
type TrackID string

// Track carries display metadata for a track.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// SongProgress reports how far playback has advanced in the current song.
// Cached: a fresh subscriber always learns the current position.
type SongProgress struct {
	Type     string   `json:"type"`
	TrackID  *TrackID `json:"track_id"`
	Elapsed  uint64   `json:"elapsed"`
	Duration uint64   `json:"duration"`
}

// NewSongProgress builds a progress frame for the given track. A nil track id
// means nothing is playing and zeroes the counters.
func NewSongProgress(trackID *TrackID, elapsed, duration uint64) SongProgress {
	if trackID == nil {
		return SongProgress{Type: KindSongProgress}
	}
	return SongProgress{
		Type:     KindSongProgress,
		TrackID:  trackID,
		Elapsed:  elapsed,
		Duration: duration,
	}
}

func (SongProgress) Kind() string     { return KindSongProgress }
func (SongProgress) CacheKey() string { return KindSongProgress }

// SongCurrent describes the song currently loaded in the player.
// Cached: a fresh subscriber always learns what is playing.
type SongCurrent struct {
	Type      string   `json:"type"`
	TrackID   *TrackID `json:"track_id"`
	Track     *Track   `json:"track"`
	User      *string  `json:"user"`
	IsPlaying bool     `json:"is_playing"`
	Elapsed   uint64   `json:"elapsed"`
	Duration  uint64   `json:"duration"`
}

// NewSongCurrent builds a current-song frame. Use EmptySongCurrent when the
// player has nothing loaded.
func NewSongCurrent(trackID TrackID, track Track, user *string, isPlaying bool, elapsed, duration uint64) SongCurrent {
	return SongCurrent{
		Type:      KindSongCurrent,
		TrackID:   &trackID,
		Track:     &track,
		User:      user,
		IsPlaying: isPlaying,
		Elapsed:   elapsed,
		Duration:  duration,
	}
}

// EmptySongCurrent is the frame published when the player goes idle.
func EmptySongCurrent() SongCurrent {
	return SongCurrent{Type: KindSongCurrent}
}

func (SongCurrent) Kind() string     { return KindSongCurrent }
func (SongCurrent) CacheKey() string { return KindSongCurrent }

// PlayerEvent drives the embedded video player: play carries position, pause
// and stop carry nothing.
type PlayerEvent struct {
	Type     string `json:"type"`
	VideoID  string `json:"video_id,omitempty"`
	Elapsed  uint64 `json:"elapsed,omitempty"`
	Duration uint64 `json:"duration,omitempty"`
}

// PlayEvent starts playback of a video at the given position.
func PlayEvent(videoID string, elapsed, duration uint64) PlayerEvent {
	return PlayerEvent{Type: "play", VideoID: videoID, Elapsed: elapsed, Duration: duration}
}

// PauseEvent pauses the player.
func PauseEvent() PlayerEvent { return PlayerEvent{Type: "pause"} }

// StopEvent stops the player.
func StopEvent() PlayerEvent { return PlayerEvent{Type: "stop"} }

// YouTubeCurrent wraps a player event for the embedded player feed.
// Cached: a fresh subscriber learns the player's last commanded state.
type YouTubeCurrent struct {
	Type  string      `json:"type"`
	Event PlayerEvent `json:"event"`
}

func NewYouTubeCurrent(event PlayerEvent) YouTubeCurrent {
	return YouTubeCurrent{Type: KindYouTubeCurrent, Event: event}
}

func (YouTubeCurrent) Kind() string     { return KindYouTubeCurrent }
func (YouTubeCurrent) CacheKey() string { return KindYouTubeCurrent }

// YouTubeVolume reports the player volume, 0..100.
// Cached: a fresh subscriber learns the current volume.
type YouTubeVolume struct {
	Type   string `json:"type"`
	Volume uint32 `json:"volume"`
}

func NewYouTubeVolume(volume uint32) YouTubeVolume {
	return YouTubeVolume{Type: KindYouTubeVolume, Volume: volume}
}

func (YouTubeVolume) Kind() string     { return KindYouTubeVolume }
func (YouTubeVolume) CacheKey() string { return KindYouTubeVolume }

// Firework is a one-shot celebration overlay trigger. Never cached.
type Firework struct {
	Type string `json:"type"`
}

func NewFirework() Firework { return Firework{Type: KindFirework} }

func (Firework) Kind() string     { return KindFirework }
func (Firework) CacheKey() string { return "" }

// Ping is a transient liveness probe for connected overlays. Never cached.
type Ping struct {
	Type string `json:"type"`
}

func NewPing() Ping { return Ping{Type: KindPing} }

func (Ping) Kind() string     { return KindPing }
func (Ping) CacheKey() string { return "" }
