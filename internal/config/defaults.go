package config

const (
	defaultDataDir           = "~/.local/share/mokuro"
	defaultLogDir            = "~/.local/share/mokuro/logs"
	defaultOCRBaseURL        = "http://127.0.0.1:8765"
	defaultOCRModel          = "kha-white/manga-ocr-base"
	defaultOCRTimeoutSeconds = 120
	defaultOCRMaxAttempts    = 3
	defaultOCRRetrySeconds   = 2
	defaultRunnerJobs        = 1
	defaultFontSize          = "auto"
	defaultBackgroundColor   = "#C4C3D0"
	defaultZoomMode          = "fit to screen"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		OCR: OCR{
			BaseURL:           defaultOCRBaseURL,
			Model:             defaultOCRModel,
			TimeoutSeconds:    defaultOCRTimeoutSeconds,
			MaxAttempts:       defaultOCRMaxAttempts,
			RetryDelaySeconds: defaultOCRRetrySeconds,
		},
		Runner: Runner{
			Jobs: defaultRunnerJobs,
		},
		Output: Output{
			AsOneFile: true,
		},
		Reader: Reader{
			RightToLeft:     true,
			DoublePageView:  true,
			DisplayOCR:      true,
			FontSize:        defaultFontSize,
			BackgroundColor: defaultBackgroundColor,
			DefaultZoomMode: defaultZoomMode,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
