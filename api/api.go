// Package api provides HTTP handlers for the Harvest API.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/lifecycle"
)

// IdentityResolver extracts the caller identity from an incoming
// request. Authentication itself is the platform gateway's concern;
// Harvest trusts the resolved identity.
type IdentityResolver interface {
	Resolve(ctx forge.Context) (harvest.Identity, error)
}

// IdentityResolverFunc adapts a function to the IdentityResolver
// interface.
type IdentityResolverFunc func(ctx forge.Context) (harvest.Identity, error)

// Resolve calls f.
func (f IdentityResolverFunc) Resolve(ctx forge.Context) (harvest.Identity, error) {
	return f(ctx)
}

// HeaderIdentity resolves the caller from the X-User-ID and X-User-Role
// headers set by the gateway.
func HeaderIdentity() IdentityResolver {
	return IdentityResolverFunc(func(ctx forge.Context) (harvest.Identity, error) {
		subject := ctx.Header("X-User-ID")
		if subject == "" {
			return harvest.Identity{}, forge.Unauthorized("missing X-User-ID header")
		}
		return harvest.Identity{
			Subject: subject,
			Role:    harvest.Role(ctx.Header("X-User-Role")),
		}, nil
	})
}

// API wires the Forge-style HTTP handlers for the collection tracker.
type API struct {
	tracker  *lifecycle.Tracker
	store    collection.Store
	identity IdentityResolver
	router   forge.Router
}

// New creates an API around a lifecycle Tracker. The store powers the
// list and count endpoints; the resolver extracts caller identities.
func New(tracker *lifecycle.Tracker, store collection.Store, identity IdentityResolver, router forge.Router) *API {
	if identity == nil {
		identity = HeaderIdentity()
	}
	return &API{tracker: tracker, store: store, identity: identity, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	a.RegisterRoutes(a.router)
	return a.router.Handler()
}

// RegisterRoutes registers all collection API routes into the given
// Forge router with full OpenAPI metadata.
func (a *API) RegisterRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("collections"))

	_ = g.POST("/collections", a.triggerCollection,
		forge.WithSummary("Trigger collection"),
		forge.WithDescription("Starts an asynchronous data collection run and returns its tracking ID immediately."),
		forge.WithOperationID("triggerCollection"),
		forge.WithRequestSchema(TriggerRequest{}),
		forge.WithResponseSchema(http.StatusCreated, "Collection run created", TriggerResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/collections", a.listCollections,
		forge.WithSummary("List collections"),
		forge.WithDescription("Returns collection runs filtered by state."),
		forge.WithOperationID("listCollections"),
		forge.WithRequestSchema(ListCollectionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Collection runs", []*collection.Run{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/collections/counts", a.collectionCounts,
		forge.WithSummary("Collection counts"),
		forge.WithDescription("Returns collection run counts grouped by state."),
		forge.WithOperationID("collectionCounts"),
		forge.WithResponseSchema(http.StatusOK, "Collection counts", CountsResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/collections/:collectionId/status", a.collectionStatus,
		forge.WithSummary("Collection status"),
		forge.WithDescription("Returns the current state and progress of a collection run."),
		forge.WithOperationID("collectionStatus"),
		forge.WithResponseSchema(http.StatusOK, "Collection status", collection.StatusView{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/collections/:collectionId/results", a.collectionResults,
		forge.WithSummary("Collection results"),
		forge.WithDescription("Returns the results summary of a completed collection run."),
		forge.WithOperationID("collectionResults"),
		forge.WithResponseSchema(http.StatusOK, "Collection results", collection.ResultsView{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/collections/:collectionId/cancel", a.cancelCollection,
		forge.WithSummary("Cancel collection"),
		forge.WithDescription("Cancels an active collection run. Cancelling an already-cancelled or failed run is a no-op."),
		forge.WithOperationID("cancelCollection"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}
