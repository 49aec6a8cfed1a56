package app

import (
	"context"
	"errors"
	"log"
	"net/http"

	"scorekeep/api/internal/perm"
	"scorekeep/api/internal/share"
)

// DecisionInput is the wire form of a per-item accept decision. A child with
// no decision defaults to accept-without-link.
type DecisionInput struct {
	RequestID string `json:"requestId"`
	Accept    bool   `json:"accept"`
	LinkID    string `json:"linkId"`
}

func (s *Service) CreateShareRequest(ctx context.Context, callerID, itemType, itemID, recipientID, permission string) (ShareTreePayload, error) {
	root := share.ItemRef{Type: share.ItemType(itemType), ID: itemID}
	if !root.Type.Valid() {
		return ShareTreePayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unknown item type", map[string]any{"itemType": itemType})
	}
	if recipientID == callerID {
		return ShareTreePayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Cannot share with yourself", nil)
	}
	if _, err := s.store.GetUserByID(ctx, recipientID); err != nil {
		return ShareTreePayload{}, err
	}

	tree, err := s.engine.CreateShareRequest(ctx, callerID, root, recipientID, perm.Normalize(permission))
	if err != nil {
		return ShareTreePayload{}, mapShareError(err)
	}

	s.notifyShare(ctx, tree)
	return shareTreePayload(tree), nil
}

func (s *Service) GetShareRequest(ctx context.Context, callerID, requestID string) (ShareTreePayload, error) {
	tree, err := s.engine.GetShareRequest(ctx, callerID, requestID)
	if err != nil {
		return ShareTreePayload{}, mapShareError(err)
	}
	return shareTreePayload(tree), nil
}

func (s *Service) ListPendingShareRequests(ctx context.Context, callerID string) ([]ShareRequestPayload, error) {
	requests, err := s.engine.ListPendingForRecipient(ctx, callerID)
	if err != nil {
		return nil, err
	}
	payloads := make([]ShareRequestPayload, 0, len(requests))
	for _, req := range requests {
		payloads = append(payloads, shareRequestPayload(req))
	}
	return payloads, nil
}

func (s *Service) AcceptShareRequest(ctx context.Context, callerID, requestID string, decisions []DecisionInput) (ShareTreePayload, error) {
	converted := make([]share.Decision, 0, len(decisions))
	for _, d := range decisions {
		converted = append(converted, share.Decision{
			RequestID: d.RequestID,
			Accept:    d.Accept,
			LinkID:    d.LinkID,
		})
	}
	tree, err := s.engine.AcceptShareRequest(ctx, callerID, requestID, converted)
	if err != nil {
		return ShareTreePayload{}, mapShareError(err)
	}
	return shareTreePayload(tree), nil
}

func (s *Service) RejectShareRequest(ctx context.Context, callerID, requestID string) error {
	if err := s.engine.RejectShareRequest(ctx, callerID, requestID); err != nil {
		return mapShareError(err)
	}
	return nil
}

func shareTreePayload(tree share.RequestTree) ShareTreePayload {
	payload := ShareTreePayload{
		Root:     shareRequestPayload(tree.Root),
		Children: make([]ShareRequestPayload, 0, len(tree.Children)),
	}
	for _, child := range tree.Children {
		payload.Children = append(payload.Children, shareRequestPayload(child))
	}
	return payload
}

func mapShareError(err error) error {
	switch {
	case errors.Is(err, share.ErrLinkNotOwned):
		return domainError(http.StatusForbidden, "FORBIDDEN", "Link target does not belong to you", nil)
	case errors.Is(err, share.ErrPermissionDenied):
		return domainError(http.StatusForbidden, "FORBIDDEN", "Permission does not cover this action", nil)
	case errors.Is(err, share.ErrAlreadyDecided):
		return domainError(http.StatusConflict, "ALREADY_DECIDED", "Share request already decided", nil)
	case errors.Is(err, share.ErrUnresolvedDependency):
		return domainError(http.StatusUnprocessableEntity, "UNRESOLVED_DEPENDENCY", "A dependency of this item was not accepted", nil)
	default:
		return err
	}
}

// notifyShare mails the recipient about a fresh manual share. Fire and
// forget: missing SMTP config or a lookup failure only logs.
func (s *Service) notifyShare(ctx context.Context, tree share.RequestTree) {
	if !s.SMTPConfigured() {
		return
	}
	recipient, err := s.store.GetUserByID(ctx, tree.Root.SharedWithID)
	if err != nil {
		log.Printf("share notification: recipient lookup: %v", err)
		return
	}
	sender, err := s.store.GetUserByID(ctx, tree.Root.OwnerID)
	if err != nil {
		log.Printf("share notification: sender lookup: %v", err)
		return
	}
	itemName := s.shareItemName(ctx, tree.Root.ItemType, tree.Root.ItemID)
	reviewURL := s.appBaseURL + "/shares/" + tree.Root.ID

	go func() {
		if err := s.email.SendShareNotificationEmail(recipient.Email, recipient.DisplayName, sender.DisplayName, tree.Root.ItemType, itemName, reviewURL); err != nil {
			log.Printf("share notification: send: %v", err)
		}
	}()
}

func (s *Service) shareItemName(ctx context.Context, itemType, itemID string) string {
	switch share.ItemType(itemType) {
	case share.ItemGame:
		if game, err := s.store.GetGame(ctx, itemID); err == nil {
			return game.Name
		}
	case share.ItemMatch:
		if match, err := s.store.GetMatch(ctx, itemID); err == nil {
			return match.Name
		}
	case share.ItemPlayer:
		if player, err := s.store.GetPlayer(ctx, itemID); err == nil {
			return player.Name
		}
	}
	return itemID
}
