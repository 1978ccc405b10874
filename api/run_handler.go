package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/id"
)

func (a *API) triggerCollection(ctx forge.Context, req *TriggerRequest) (*TriggerResponse, error) {
	caller, err := a.identity.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.tracker.Trigger(ctx.Context(), caller, req.CollectionType, req.Services)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &TriggerResponse{
		CollectionID:      r.ID.String(),
		Status:            string(r.State),
		EstimatedDuration: r.EstimatedDuration,
	}
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) collectionStatus(ctx forge.Context) error {
	caller, err := a.identity.Resolve(ctx)
	if err != nil {
		return err
	}

	runID, err := id.ParseCollectionID(ctx.Param("collectionId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid collection ID: %v", err))
	}

	status, err := a.tracker.Status(ctx.Context(), runID, caller)
	if err != nil {
		return mapError(err)
	}
	return ctx.JSON(http.StatusOK, status)
}

func (a *API) collectionResults(ctx forge.Context) error {
	caller, err := a.identity.Resolve(ctx)
	if err != nil {
		return err
	}

	runID, err := id.ParseCollectionID(ctx.Param("collectionId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid collection ID: %v", err))
	}

	results, err := a.tracker.Results(ctx.Context(), runID, caller)
	if err != nil {
		return mapError(err)
	}
	return ctx.JSON(http.StatusOK, results)
}

func (a *API) cancelCollection(ctx forge.Context) error {
	caller, err := a.identity.Resolve(ctx)
	if err != nil {
		return err
	}

	runID, err := id.ParseCollectionID(ctx.Param("collectionId"))
	if err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid collection ID: %v", err))
	}

	if err := a.tracker.Cancel(ctx.Context(), runID, caller); err != nil {
		return mapError(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (a *API) listCollections(ctx forge.Context, req *ListCollectionsRequest) ([]*collection.Run, error) {
	caller, err := a.identity.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	state := collection.State(req.State)
	if state == "" {
		state = collection.StateInProgress
	}

	opts := collection.ListOpts{
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}
	// Non-admins only see their own runs.
	if !caller.IsAdmin() {
		opts.OwnerID = caller.Subject
	}

	runs, err := a.store.ListRunsByState(ctx.Context(), state, opts)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return runs, ctx.JSON(http.StatusOK, runs)
}

func (a *API) collectionCounts(ctx forge.Context) error {
	caller, err := a.identity.Resolve(ctx)
	if err != nil {
		return err
	}

	var ownerID string
	if !caller.IsAdmin() {
		ownerID = caller.Subject
	}

	c := ctx.Context()
	resp := CountsResponse{}
	for _, state := range []collection.State{
		collection.StateStarted,
		collection.StateInProgress,
		collection.StateCompleted,
		collection.StateCancelled,
		collection.StateFailed,
	} {
		count, countErr := a.store.CountRuns(c, collection.CountOpts{State: state, OwnerID: ownerID})
		if countErr != nil {
			return fmt.Errorf("count collections (%s): %w", state, countErr)
		}
		switch state {
		case collection.StateStarted:
			resp.Started = count
		case collection.StateInProgress:
			resp.InProgress = count
		case collection.StateCompleted:
			resp.Completed = count
		case collection.StateCancelled:
			resp.Cancelled = count
		case collection.StateFailed:
			resp.Failed = count
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}

// mapError converts harvest sentinel errors to forge HTTP errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, harvest.ErrValidation):
		return forge.BadRequest(err.Error())
	case errors.Is(err, harvest.ErrRunNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, harvest.ErrForbidden):
		return forge.Forbidden(err.Error())
	case errors.Is(err, harvest.ErrNotReady),
		errors.Is(err, harvest.ErrAlreadyTerminal),
		errors.Is(err, harvest.ErrInvalidTransition):
		return forge.Conflict(err.Error())
	case errors.Is(err, harvest.ErrQuotaExceeded):
		return forge.TooManyRequests(err.Error())
	default:
		return err
	}
}
