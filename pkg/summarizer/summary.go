// Package summarizer provides summary generation for encode runs.
package summarizer

import "time"

// Summary contains the data collected during one encode run.
type Summary struct {
	GeneratedAt time.Time `json:"generatedAt"`

	Source   SourceInfo `json:"source"`
	Settings Settings   `json:"settings"`
	Output   OutputInfo `json:"output"`
}

// SourceInfo describes the frames that were fed to the encoder.
type SourceInfo struct {
	Name    string  `json:"name"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	FPS     float64 `json:"fps"`
	Frames  int     `json:"frames"`
	Resized int     `json:"resized"` // frames scaled to the encoded size
}

// Settings contains the requested encoder configuration.
type Settings struct {
	Preset      string `json:"preset"`
	Tune        string `json:"tune,omitempty"`
	Profile     string `json:"profile,omitempty"`
	RateControl string `json:"rateControl"` // e.g. "crf 23" or "abr 2500 kbps"
	Colorspace  string `json:"colorspace"`
	Container   string `json:"container"`
	Resolved    string `json:"resolved,omitempty"` // configuration reported by the encoder after open
}

// OutputInfo contains information about the produced stream.
type OutputInfo struct {
	Path        string `json:"path"`
	FileSize    int64  `json:"fileSize"`
	HeaderBytes int    `json:"headerBytes"`
	FramesIn    int    `json:"framesIn"`
	FramesOut   int    `json:"framesOut"`
	Keyframes   int    `json:"keyframes"`
	MaxDelayed  int    `json:"maxDelayed"`
	DurationMs  int    `json:"durationMs"`
	ElapsedMs   int64  `json:"elapsedMs"` // wall-clock encode time
}

// BitrateKbps returns the average bitrate over the stream duration.
func (o OutputInfo) BitrateKbps() float64 {
	if o.DurationMs <= 0 {
		return 0
	}
	return float64(o.FileSize) * 8 / float64(o.DurationMs)
}

// EncodeFPS returns the encoding speed in frames per wall-clock second.
func (o OutputInfo) EncodeFPS() float64 {
	if o.ElapsedMs <= 0 {
		return 0
	}
	return float64(o.FramesIn) * 1000 / float64(o.ElapsedMs)
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithSettings sets encoder settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets output stream information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// WithElapsed records the wall-clock encode time.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Output.ElapsedMs = d.Milliseconds()
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
