package config

import "strings"

// normalize clamps malformed or out-of-range values back to defaults so a
// hand-edited file degrades a run instead of aborting it.
func (c *Config) normalize() {
	def := Default()

	if strings.TrimSpace(c.Serial.Port) == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baudrate <= 0 {
		c.Serial.Baudrate = def.Serial.Baudrate
	}
	if len(c.Serial.Baudrates) == 0 {
		c.Serial.Baudrates = append([]int{}, def.Serial.Baudrates...)
	}
	if c.Commands.IREngage == "" {
		c.Commands.IREngage = def.Commands.IREngage
	}

	if c.Sound.Frequency <= 0 {
		c.Sound.Frequency = def.Sound.Frequency
	}
	if c.Sound.Duration <= 0 {
		c.Sound.Duration = def.Sound.Duration
	}
	if c.Sound.FadeSeconds < 0 {
		c.Sound.FadeSeconds = def.Sound.FadeSeconds
	}
	if c.Sound.SampleRate <= 0 {
		c.Sound.SampleRate = def.Sound.SampleRate
	}

	if c.Loop.StartFrequency <= 0 {
		c.Loop.StartFrequency = def.Loop.StartFrequency
	}
	if c.Loop.CurrentFrequency <= 0 {
		c.Loop.CurrentFrequency = c.Loop.StartFrequency
	}
	if c.Loop.MaxFrequency <= 0 {
		c.Loop.MaxFrequency = def.Loop.MaxFrequency
	}
	if c.Loop.Step <= 0 {
		c.Loop.Step = def.Loop.Step
	}
	if c.Loop.Duration <= 0 {
		c.Loop.Duration = def.Loop.Duration
	}
	if c.Loop.IRDelay < 0 {
		c.Loop.IRDelay = def.Loop.IRDelay
	}
	if c.Loop.LoopSleep < 0 {
		c.Loop.LoopSleep = def.Loop.LoopSleep
	}
	if c.Loop.MaxLoopsPerRun <= 0 {
		c.Loop.MaxLoopsPerRun = def.Loop.MaxLoopsPerRun
	}
	if strings.TrimSpace(c.Loop.LogFile) == "" {
		c.Loop.LogFile = def.Loop.LogFile
	}

	if strings.TrimSpace(c.Fetch.OutputDir) == "" {
		c.Fetch.OutputDir = def.Fetch.OutputDir
	}
	if c.Fetch.Tolerance < 0 {
		c.Fetch.Tolerance = def.Fetch.Tolerance
	}

	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = def.DataDir
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = def.LogLevel
	}
	if strings.TrimSpace(c.LogFormat) == "" {
		c.LogFormat = def.LogFormat
	}
}
