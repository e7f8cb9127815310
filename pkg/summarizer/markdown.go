package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// Translator maps a label to its localized form.
type Translator func(key string) string

// MarkdownFormatter renders a Summary as a markdown document.
type MarkdownFormatter struct {
	translate Translator
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to localize labels.
func WithTranslator(t Translator) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(key string) string { return key }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.translate

	fmt.Fprintf(&b, "# %s\n\n", t("Encode Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.table(&b, [][2]string{
		{t("Input"), orNA(t, s.Source.Name)},
		{t("Size"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height)},
		{t("Frame Rate"), fmt.Sprintf("%.3f fps", s.Source.FPS)},
		{t("Scaled Frames"), fmt.Sprintf("%d", s.Source.Resized)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.table(&b, [][2]string{
		{t("Preset"), orNA(t, s.Settings.Preset)},
		{t("Tune"), orNA(t, s.Settings.Tune)},
		{t("Profile"), orNA(t, s.Settings.Profile)},
		{t("Rate Control"), orNA(t, s.Settings.RateControl)},
		{t("Colorspace"), orNA(t, s.Settings.Colorspace)},
		{t("Container"), orNA(t, s.Settings.Container)},
	})
	if s.Settings.Resolved != "" {
		fmt.Fprintf(&b, "%s: `%s`\n\n", t("Resolved"), s.Settings.Resolved)
	}

	o := s.Output
	fmt.Fprintf(&b, "## %s\n\n", t("Output"))
	f.table(&b, [][2]string{
		{t("File"), orNA(t, o.Path)},
		{t("File Size"), formatBytes(o.FileSize)},
		{t("Headers"), fmt.Sprintf("%d bytes", o.HeaderBytes)},
		{t("Frames In"), fmt.Sprintf("%d", o.FramesIn)},
		{t("Frames Out"), fmt.Sprintf("%d", o.FramesOut)},
		{t("Keyframes"), fmt.Sprintf("%d", o.Keyframes)},
		{t("Max Delayed Frames"), fmt.Sprintf("%d", o.MaxDelayed)},
		{t("Duration"), fmt.Sprintf("%d ms", o.DurationMs)},
		{t("Average Bitrate"), fmt.Sprintf("%.1f kbps", o.BitrateKbps())},
		{t("Encode Time"), fmt.Sprintf("%d ms", o.ElapsedMs)},
		{t("Encode Speed"), fmt.Sprintf("%.1f fps", o.EncodeFPS())},
	})

	return b.String()
}

func (f *MarkdownFormatter) table(b *strings.Builder, rows [][2]string) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], r[1])
	}
	b.WriteString("\n")
}

func orNA(t Translator, s string) string {
	if s == "" {
		return t("N/A")
	}
	return s
}

func formatBytes(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
