package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID, baseURL string) *Slack {
	return &Slack{
		botToken:  botToken,
		channelID: channelID,
		baseURL:   baseURL,
	}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, postgresDSN string) *Repository {
	return &Repository{
		backend:     backend,
		projectID:   projectID,
		postgresDSN: postgresDSN,
	}
}

// NewStorageForTest creates a Storage config for testing purposes
func NewStorageForTest(bucket, prefix, localDir string) *Storage {
	return &Storage{
		bucket:   bucket,
		prefix:   prefix,
		localDir: localDir,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewAppConfigForTest creates an AppConfig pointing at path
func NewAppConfigForTest(path string) *AppConfig {
	return &AppConfig{path: path}
}
