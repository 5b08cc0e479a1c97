package config

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "GURSHA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "GURSHA_DB_DSN"
	EnvDBHost = "GURSHA_DB_HOST"
	EnvDBUser = "GURSHA_DB_USER"
	EnvDBName = "GURSHA_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
