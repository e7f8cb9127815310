// Package main provides localization for the x264enc CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":    "入力",
		"Output":   "出力",
		"Geometry": "サイズとフレームレート",
		"Encoder":  "エンコーダ",
		"Debug":    "デバッグ",
		"Logging":  "ログ",

		// Commands
		"Encode raw video to H.264 with libx264":        "libx264 で非圧縮動画を H.264 にエンコード",
		"Encode a YUV4MPEG2 file or the test pattern":   "YUV4MPEG2 ファイルまたはテストパターンをエンコード",
		"Describe an encoded MP4 file or H.264 stream":  "エンコード済みの MP4 ファイルまたは H.264 ストリームを解析",
		"List colorspaces, presets, tunes and profiles": "色空間、プリセット、チューン、プロファイルの一覧",
		"x264enc version %s (libx264 build %d)":         "x264enc バージョン %s (libx264 ビルド %d)",

		"Encode frames from a .y4m file, stdin (-) or the built-in test pattern (testsrc) into an MP4 file or a raw H.264 stream.": "y4m ファイル、標準入力（-）または内蔵テストパターン（testsrc）のフレームを MP4 ファイルまたは H.264 ストリームにエンコードします。",

		// Input flags
		"YAML configuration file":                      "YAML設定ファイル",
		"Input: testsrc, a .y4m file or - for stdin":   "入力: testsrc、.y4m ファイル、または標準入力の -",
		"Maximum number of frames to encode (0 = all)": "エンコードする最大フレーム数（0 = 全て）",
		"TrueType font for the test pattern counter":   "テストパターンのカウンタに使う TrueType フォント",

		// Output flags
		"Output file path, - for stdout": "出力ファイルパス（- で標準出力）",

		"Output container (mp4, annexb), inferred from the output path by default": "出力コンテナ（mp4, annexb）。既定では出力パスから推定",

		"Output execution summary to file (Markdown format)": "実行サマリーをファイルに出力（Markdown形式）",

		// Geometry flags
		"Output width, scaling the source if it differs":  "出力の幅（ソースと異なる場合は拡大縮小）",
		"Output height, scaling the source if it differs": "出力の高さ（ソースと異なる場合は拡大縮小）",
		"Frame rate (default: the source rate)":           "フレームレート（デフォルト: ソースのレート）",

		// Encoder flags
		"Input colorspace handed to the encoder (see formats)":        "エンコーダに渡す入力色空間（formats を参照）",
		"Speed preset (ultrafast ... placebo)":                        "速度プリセット（ultrafast ... placebo）",
		"Tuning, comma separated (film, animation, zerolatency, ...)": "チューニング、カンマ区切り（film, animation, zerolatency, ...）",
		"H.264 profile limit (baseline, main, high, ...)":             "H.264 プロファイルの上限（baseline, main, high, ...）",
		"Constant rate factor (0-51, lower is better)":                "CRF値（0-51、低いほど高品質）",
		"Average bitrate in kbit/s, overrides crf":                    "平均ビットレート（kbit/s、CRFを上書き）",
		"Maximum keyframe interval":                                   "キーフレームの最大間隔",
		"Encoder threads (0 = auto)":                                  "エンコーダのスレッド数（0 = 自動）",
		"B-frames (0 = preset value, negative disables)":              "Bフレーム数（0 = プリセット値、負の値で無効）",
		"Signal full range samples":                                   "フルレンジのサンプルとして通知",
		"Matrix coefficients code written to the VUI":                 "VUI に書き込む行列係数コード",
		"Psychovisual rate-distortion strength":                       "心理視覚 RD の強さ",
		"Psychovisual trellis strength":                               "心理視覚トレリスの強さ",
		"Raw encoder option as name=value (repeatable)":               "name=value 形式のエンコーダオプション（複数指定可）",

		// Debug flags
		"Enable debug output":                              "デバッグ出力を有効化",
		"Directory for debug output":                       "デバッグ出力のディレクトリ",
		"Save every Nth source frame as PNG in debug mode": "デバッグ時にNフレームごとのソースをPNGで保存",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Probe and formats
		"Print the report as JSON":              "レポートをJSONで出力",
		"Exactly one file argument is required": "ファイル引数を1つだけ指定してください",
		"Colorspaces:":                          "色空間:",
		"planes":                                "プレーン",
		"Presets:":                              "プリセット:",
		"Tunes:":                                "チューン:",
		"Profiles:":                             "プロファイル:",
		"Codec":                                 "コーデック",
		"Frames":                                "フレーム数",

		// Runtime messages
		"Encoded %d frames (%d keyframes) at %dx%d in %s": "%d フレーム（キーフレーム %d）を %dx%d で %s かけてエンコードしました",
		"Output saved to %s":                              "出力を %s に保存しました",

		// Summary content
		"Encode Summary":     "エンコードサマリー",
		"Generated":          "生成日時",
		"Source":             "ソース",
		"Size":               "サイズ",
		"Frame Rate":         "フレームレート",
		"Scaled Frames":      "拡大縮小したフレーム",
		"Settings":           "設定",
		"Preset":             "プリセット",
		"Tune":               "チューン",
		"Profile":            "プロファイル",
		"Rate Control":       "レート制御",
		"Colorspace":         "色空間",
		"Container":          "コンテナ",
		"Resolved":           "確定パラメータ",
		"File":               "ファイル",
		"File Size":          "ファイルサイズ",
		"Headers":            "ヘッダー",
		"Frames In":          "入力フレーム数",
		"Frames Out":         "出力フレーム数",
		"Keyframes":          "キーフレーム数",
		"Max Delayed Frames": "最大遅延フレーム数",
		"Duration":           "再生時間",
		"Average Bitrate":    "平均ビットレート",
		"Encode Time":        "エンコード時間",
		"Encode Speed":       "エンコード速度",
		"Item":               "項目",
		"Value":              "値",
		"N/A":                "なし",
	})
}
