package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/lexora-app/moderation-server/api"
	"github.com/lexora-app/moderation-server/internal/classifier"
	"github.com/lexora-app/moderation-server/internal/converters"
	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/lexora-app/moderation-server/internal/model"
	"github.com/lexora-app/moderation-server/internal/moderation"
	"github.com/lexora-app/moderation-server/internal/storage"
)

// adminIDHeader carries the authenticated admin identity for audit
// attribution on override calls.
const adminIDHeader = "X-Admin-ID"

type moderationRoutes struct {
	engine     *moderation.Engine
	db         *storage.Storage
	classifier classifier.Classifier // nil when no endpoint is configured
}

// echo route for testing purposes
func echoRoute(w http.ResponseWriter, r *http.Request) {
	// Create a map to hold the request data
	var data map[string]any

	// Decode the request body into the data map
	if r.ContentLength != 0 {
		if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			if err := render.Decode(r, &data); err != nil {
				newResponse().SetError("bad_request", err.Error()).BadRequest(w)

				return
			}
		} else {
			msg := fmt.Sprintf("Content-Type: %s", r.Header.Get("Content-Type"))

			newResponse().SetError("bad_request", "Content-Type must be application/json", msg).BadRequest(w)

			return
		}
	}

	newResponse().SetData(struct {
		URL     string         `json:"url"`
		Remote  string         `json:"remote"`
		Method  string         `json:"method"`
		Headers http.Header    `json:"headers"`
		Body    map[string]any `json:"body"`
	}{
		URL:     r.URL.String(),
		Remote:  r.RemoteAddr,
		Method:  r.Method,
		Headers: r.Header,
		Body:    data,
	}).Ok(w)
}

// gate - the pre-publish guard.
func (routes *moderationRoutes) gate(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	result, err := routes.engine.CheckCanPost(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(result).Ok(w)
}

// record - callback from the content routes when the classifier flags an
// item. Callers that have no verdict yet may send the content text alone;
// the configured classifier scores it inline.
func (routes *moderationRoutes) record(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID      int64         `json:"user_id"`
		Type        string        `json:"violation_type"`
		ContentID   string        `json:"content_id"`
		ContentText string        `json:"content_text"`
		Verdict     model.Verdict `json:"verdict"`
	}

	if !decodeBody(w, r, &body) {
		return
	}

	if !body.Verdict.Flagged && routes.classifier != nil && body.ContentText != "" {
		verdict, err := routes.classifier.Classify(r.Context(), body.ContentText)
		if err != nil {
			newResponse().SetError("classifier_unavailable", err.Error()).ServiceUnavailable(w)

			return
		}

		body.Verdict = *verdict

		// Nothing to enforce when the classifier lets the content through.
		if !verdict.Flagged {
			newResponse().SetData(struct {
				Flagged bool          `json:"flagged"`
				Verdict model.Verdict `json:"verdict"`
			}{Flagged: false, Verdict: *verdict}).Ok(w)

			return
		}
	}

	outcome, err := routes.engine.Record(r.Context(), moderation.RecordInput{
		UserID:      model.UserID(body.UserID),
		Type:        model.ViolationType(body.Type),
		ContentID:   body.ContentID,
		ContentText: body.ContentText,
		Verdict:     body.Verdict,
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.EnforcementToAPI(outcome)).Ok(w)
}

// submitAppeal - a suspended user contests their active suspension.
func (routes *moderationRoutes) submitAppeal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID            int64  `json:"user_id"`
		SuspensionID      int64  `json:"suspension_id"`
		AppealReason      string `json:"appeal_reason"`
		AdditionalContext string `json:"additional_context"`
	}

	if !decodeBody(w, r, &body) {
		return
	}

	appeal, err := routes.engine.SubmitAppeal(r.Context(), model.UserID(body.UserID), body.SuspensionID, body.AppealReason, body.AdditionalContext)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.AppealToAPI(appeal)).Ok(w)
}

// account - current moderation state of one account.
func (routes *moderationRoutes) account(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	account, err := routes.db.Account(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.AccountToAPI(account)).Ok(w)
}

// listViolations - filterable listing for the admin UI.
func (routes *moderationRoutes) listViolations(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	limit, offset := pagination(r)

	violations, err := routes.db.ViolationsByUser(
		r.Context(),
		model.UserID(userID),
		model.ViolationType(r.URL.Query().Get("type")),
		limit, offset,
	)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.ViolationsToAPI(violations)).Ok(w)
}

// listSuspensions - filterable ledger listing for the admin UI.
func (routes *moderationRoutes) listSuspensions(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)

	suspensions, err := routes.db.SuspensionsByUser(
		r.Context(),
		model.UserID(userID),
		model.SuspensionState(r.URL.Query().Get("status")),
	)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.SuspensionsToAPI(suspensions)).Ok(w)
}

// listAppeals - the review queue.
func (routes *moderationRoutes) listAppeals(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	appeals, err := routes.db.AppealsByState(r.Context(), model.AppealState(r.URL.Query().Get("status")), limit, offset)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.AppealsToAPI(appeals)).Ok(w)
}

// stats - aggregate counts for the dashboard.
func (routes *moderationRoutes) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := routes.db.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(stats).Ok(w)
}

// applyStrike - manual strike through the normal ladder.
func (routes *moderationRoutes) applyStrike(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}

	if !decodeBody(w, r, &body) {
		return
	}

	outcome, err := routes.engine.ApplyStrike(r.Context(), userID, adminID(r), body.Reason)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.EnforcementToAPI(outcome)).Ok(w)
}

// removeStrike - admin correction, never escalates.
func (routes *moderationRoutes) removeStrike(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	account, err := routes.engine.RemoveStrike(r.Context(), userID, adminID(r))
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.AccountToAPI(account)).Ok(w)
}

// forceSuspend - ladder bypass.
func (routes *moderationRoutes) forceSuspend(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason   string `json:"reason"`
		Duration string `json:"duration"` // Go duration string, empty for the default window
	}

	if !decodeBody(w, r, &body) {
		return
	}

	var duration time.Duration

	if body.Duration != "" {
		parsed, err := time.ParseDuration(body.Duration)
		if err != nil {
			newResponse().SetError("validation_error", "invalid duration: "+body.Duration).BadRequest(w)

			return
		}

		duration = parsed
	}

	outcome, err := routes.engine.ForceSuspend(r.Context(), userID, adminID(r), body.Reason, duration)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.EnforcementToAPI(outcome)).Ok(w)
}

// forceBan - ladder bypass, permanent.
func (routes *moderationRoutes) forceBan(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}

	if !decodeBody(w, r, &body) {
		return
	}

	outcome, err := routes.engine.ForcePermanentBan(r.Context(), userID, adminID(r), body.Reason)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.EnforcementToAPI(outcome)).Ok(w)
}

// unban - explicit reversal of a permanent ban.
func (routes *moderationRoutes) unban(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}

	if !decodeBody(w, r, &body) {
		return
	}

	account, err := routes.engine.Unban(r.Context(), userID, adminID(r), body.Reason)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.AccountToAPI(account)).Ok(w)
}

// liftSuspension - end an active suspension early.
func (routes *moderationRoutes) liftSuspension(w http.ResponseWriter, r *http.Request) {
	suspensionID, ok := pathID(w, r, "suspensionID")
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}

	if !decodeBody(w, r, &body) {
		return
	}

	lifted, err := routes.engine.LiftSuspension(r.Context(), suspensionID, adminID(r), body.Reason)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.SuspensionToAPI(lifted)).Ok(w)
}

// beginReview - pending → under_review.
func (routes *moderationRoutes) beginReview(w http.ResponseWriter, r *http.Request) {
	appealID, ok := pathID(w, r, "appealID")
	if !ok {
		return
	}

	appeal, err := routes.engine.BeginAppealReview(r.Context(), appealID, adminID(r))
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.AppealToAPI(appeal)).Ok(w)
}

// resolveAppeal - under_review → approved | rejected.
func (routes *moderationRoutes) resolveAppeal(w http.ResponseWriter, r *http.Request) {
	appealID, ok := pathID(w, r, "appealID")
	if !ok {
		return
	}

	var body struct {
		Outcome         string `json:"outcome"`
		AdminNotes      string `json:"admin_notes"`
		RejectionReason string `json:"rejection_reason"`
	}

	if !decodeBody(w, r, &body) {
		return
	}

	appeal, err := routes.engine.ResolveAppeal(r.Context(), appealID, adminID(r), body.Outcome, body.AdminNotes, body.RejectionReason)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	newResponse().SetData(converters.AppealToAPI(appeal)).Ok(w)
}

func newResponse() *api.Response {
	return &api.Response{}
}

func adminID(r *http.Request) string {
	return r.Header.Get(adminIDHeader)
}

func pathUserID(w http.ResponseWriter, r *http.Request) (model.UserID, bool) {
	id, ok := pathID(w, r, "userID")

	return model.UserID(id), ok
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id == 0 {
		newResponse().SetError("validation_error", "invalid "+param).BadRequest(w)

		return 0, false
	}

	return id, true
}

func pagination(r *http.Request) (limit, offset int) {
	const defaultLimit = 50

	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}

	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	return limit, offset
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := render.Decode(r, out); err != nil {
		newResponse().SetError("bad_request", err.Error()).BadRequest(w)

		return false
	}

	return true
}

// writeDomainError maps the typed error taxonomy onto HTTP responses, so
// admin UIs can tell "nothing to do" from "something is broken".
func writeDomainError(w http.ResponseWriter, err error) {
	rsp := newResponse()

	switch {
	case errors.Is(err, moderr.ErrorAccountNotFound):
		rsp.SetError("account_not_found", err.Error()).NotFound(w)
	case errors.Is(err, moderr.ErrorSuspensionNotFound):
		rsp.SetError("suspension_not_found", err.Error()).NotFound(w)
	case errors.Is(err, moderr.ErrorAppealNotFound):
		rsp.SetError("appeal_not_found", err.Error()).NotFound(w)
	case errors.Is(err, moderr.ErrorAlreadySuspended):
		rsp.SetError("already_suspended", err.Error()).Conflict(w)
	case errors.Is(err, moderr.ErrorInvalidTransition):
		rsp.SetError("invalid_transition", err.Error()).Conflict(w)
	case errors.Is(err, moderr.ErrorDuplicateAppeal):
		rsp.SetError("duplicate_appeal", err.Error()).Conflict(w)
	case errors.Is(err, moderr.ErrorSuspensionNotActive):
		rsp.SetError("suspension_not_active", err.Error()).Conflict(w)
	case errors.Is(err, moderr.ErrorDuplicateViolation):
		rsp.SetError("duplicate_violation", err.Error()).Conflict(w)
	case errors.Is(err, moderr.ErrorValidation):
		rsp.SetError("validation_error", err.Error()).BadRequest(w)
	case errors.Is(err, moderr.ErrorStoreUnavailable):
		rsp.SetError("store_unavailable", err.Error()).ServiceUnavailable(w)
	default:
		rsp.SetError("internal_server_error", err.Error()).InternalServerError(w)
	}
}
