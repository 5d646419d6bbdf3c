package logging

const (
	BaseDataDir = "data"
	LogsDir     = "logs"
)

type ProcessName string

const (
	ServerProcess ProcessName = "server"
)

type LoggerConfig struct {
	LogDir        string
	ProcessName   ProcessName
	IsDevelopment bool
}

func NewDefaultConfig(processName ProcessName) LoggerConfig {
	return LoggerConfig{
		LogDir:        BaseDataDir,
		ProcessName:   processName,
		IsDevelopment: true,
	}
}
