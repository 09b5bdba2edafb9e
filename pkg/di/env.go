package di

// Env holds the settings read from environment variables.
type Env struct {
	HistoryDB       string
	IsGitHubActions bool
}

// SetEnv populates env from environment variables.
func SetEnv(env *Env, getEnv func(string) string) {
	env.HistoryDB = getEnv("SCANMESH_HISTORY_DB")
	env.IsGitHubActions = getEnv("GITHUB_ACTIONS") == "true"
}

// historyDB picks the database path: the flag, then the environment variable, then the configuration file.
func historyDB(flagValue string, env *Env, cfgValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env != nil && env.HistoryDB != "" {
		return env.HistoryDB
	}
	return cfgValue
}
