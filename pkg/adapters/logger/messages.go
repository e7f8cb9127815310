package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Job level messages (info)
		"Opening source %s":                "ソース %s を開いています",
		"Source opened: %dx%d, %.3f fps":   "ソースを開きました: %dx%d, %.3f fps",
		"Wrote %d bytes to %s":             "%d バイトを %s に書き込みました",
		"Summary written to %s":            "サマリーを %s に書き込みました",
		"Loaded configuration from %s":     "%s から設定を読み込みました",
		"Interrupted, shutting down...":    "中断されました。エンコーダを終了しています...",

		// Encode stage
		"Encoding %s at %dx%d, %.3f fps": "%s を %dx%d, %.3f fps でエンコード中",
		"Encoded %d frames, %d bytes":    "%d フレームをエンコードしました (%d バイト)",
		"Scaled %d frames to %dx%d":      "%d フレームを %dx%d に拡大縮小しました",
		"End after failure: %v":          "失敗後のエンコーダ終了: %v",

		// Encoder adapter (x264 component)
		"Encoder opened: %s":                             "エンコーダを開きました: %s",
		"Frame %d buffered (%d delayed)":                 "フレーム %d をバッファしました (遅延 %d)",
		"Frame emitted: pts %d dts %d type %s, %d bytes": "フレーム出力: pts %d dts %d タイプ %s, %d バイト",
		"Flushed %d delayed frames":                      "遅延フレーム %d 枚をフラッシュしました",

		// Warnings
		"Failed to save debug output: %v": "デバッグ出力の保存に失敗しました: %v",
		"Failed to write summary: %s":     "サマリーの書き込みに失敗しました: %s",

		// Errors
		"Failed to open source: %s":  "ソースを開けませんでした: %s",
		"Failed to encode video: %s": "動画のエンコードに失敗しました: %s",
		"Failed to write output: %s": "出力の書き込みに失敗しました: %s",
	})
}
