package config

// Config holds settings shared by the server and command line tools
type Config struct {
	Processing ProcessingConfig `yaml:"processing"`
	Export     ExportConfig     `yaml:"export"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ProcessingConfig struct {
	PositionTolerance float64 `yaml:"position_tolerance"`
	UVTolerance       float64 `yaml:"uv_tolerance"`
	GenerateNormals   bool    `yaml:"generate_normals"`
	GenerateTangents  bool    `yaml:"generate_tangents"`
	// charmap used for object names that are not valid utf-8
	NameEncoding string `yaml:"name_encoding"`
}

type ExportConfig struct {
	CreateSkin bool `yaml:"create_skin"`
	// name of merged mesh when none provided
	MergedName string `yaml:"merged_name"`
	ASCII      bool   `yaml:"ascii"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
	// request body limit in megabytes
	MaxUploadMB int64 `yaml:"max_upload_mb"`
	// files under this directory can be processed by ?file= param, disabled when empty
	DataDirectory string `yaml:"data_directory"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

func Default() *Config {
	return &Config{
		Processing: ProcessingConfig{
			PositionTolerance: 0.02,
			UVTolerance:       0.01,
			GenerateNormals:   false,
			GenerateTangents:  false,
			NameEncoding:      "Windows 1252",
		},
		Export: ExportConfig{
			CreateSkin: true,
			MergedName: "merged",
		},
		Server: ServerConfig{
			Address:     ":8000",
			MaxUploadMB: 512,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
