// Package config loads the selfheal configuration from YAML.
//
// A configuration file is read, expanded with ExpandEnvStrict, decoded over
// Default() and validated section by section. Unknown keys are rejected.
//
// Sensitive values may be written as secret references instead of literals:
//
//	auth:
//	  jwt:
//	    secret: secretref:file:/run/secrets/selfheal-jwt
//
// References use the form "secretref:<provider>:<ref>". The env and file
// providers are always available; others can be added with WithProvider.
package config
