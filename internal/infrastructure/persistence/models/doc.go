// Package models holds the GORM rows behind the integration aggregate:
// integrations, integration_logs and project_integrations. Domain types stay
// free of ORM tags; each row type converts to and from its domain counterpart.
package models
