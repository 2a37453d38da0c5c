package config

const (
	defaultSerialPort     = "/dev/ttyUSB0"
	defaultBaudrate       = 115200
	defaultIREngage       = "!r\n"
	defaultSoundFrequency = 440.0
	defaultSoundDuration  = 1.0
	defaultFadeSeconds    = 0.1
	defaultSampleRate     = 44100
	defaultStartFrequency = 1.0
	defaultMaxFrequency   = 150.0
	defaultStep           = 0.25
	defaultLoopDuration   = 1.0
	defaultIRDelay        = 10.0
	defaultLoopSleep      = 5.0
	defaultMaxLoopsPerRun = 250
	defaultLogFile        = "stand.log"
	defaultFetchOutputDir = "./videos"
	defaultFetchTolerance = 10
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultDataDir        = "~/.local/share/stand"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
		DataDir:   defaultDataDir,
		Serial: Serial{
			Port:      defaultSerialPort,
			Baudrate:  defaultBaudrate,
			Baudrates: []int{9600, 19200, 38400, 57600, 115200},
		},
		Commands: Commands{
			IREngage: defaultIREngage,
		},
		Sound: Sound{
			Frequency:   defaultSoundFrequency,
			Duration:    defaultSoundDuration,
			FadeSeconds: defaultFadeSeconds,
			SampleRate:  defaultSampleRate,
		},
		Loop: Loop{
			StartFrequency:   defaultStartFrequency,
			CurrentFrequency: defaultStartFrequency,
			MaxFrequency:     defaultMaxFrequency,
			Step:             defaultStep,
			Duration:         defaultLoopDuration,
			IRDelay:          defaultIRDelay,
			LoopSleep:        defaultLoopSleep,
			MaxLoopsPerRun:   defaultMaxLoopsPerRun,
			LogFile:          defaultLogFile,
		},
		Fetch: Fetch{
			OutputDir: defaultFetchOutputDir,
			Tolerance: defaultFetchTolerance,
		},
	}
}
