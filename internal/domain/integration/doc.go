// Package integration models a user's connections to analytics and design
// providers (Google Analytics, Hotjar, Mixpanel, Power BI, Figma, ...).
//
// An Integration owns an opaque provider config and a sync lifecycle
// (ACTIVE, SYNCING, ERROR, INACTIVE). Every sync, webhook and action leaves
// an IntegrationLog entry. ProjectIntegration links an integration to the
// projects that consume its data.
//
// Provider access goes through the Adapter port declared here; the HTTP
// clients implementing it live in infrastructure/provider.
package integration
