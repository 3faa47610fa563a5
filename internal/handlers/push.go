package handlers

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/groupy-loopy-api/internal/auth"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/push"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
)

type PushDispatcher interface {
	Broadcast(ctx context.Context, msg push.Message) (push.Result, error)
	SendToUsers(ctx context.Context, userIDs []uint, msg push.Message) (push.Result, error)
}

type PushHandler struct {
	auth       *auth.AuthHandler
	store      *store.Store
	dispatcher PushDispatcher
}

func NewPushHandler(authHandler *auth.AuthHandler, s *store.Store, dispatcher PushDispatcher) *PushHandler {
	return &PushHandler{auth: authHandler, store: s, dispatcher: dispatcher}
}

type SavePushSubscriptionInput struct {
	auth.AuthInput
	Body struct {
		Subscription struct {
			Endpoint string `json:"endpoint,omitempty"`
			Keys     struct {
				P256dh string `json:"p256dh,omitempty"`
				Auth   string `json:"auth,omitempty"`
			} `json:"keys,omitempty"`
		} `json:"subscription"`
	}
}

type SuccessOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

func success() *SuccessOutput {
	res := &SuccessOutput{}
	res.Body.Success = true
	return res
}

func (h *PushHandler) HandleSaveSubscription(ctx context.Context, input *SavePushSubscriptionInput) (*SuccessOutput, error) {
	userID, err := h.auth.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	sub := input.Body.Subscription
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, huma.Error400BadRequest("subscription endpoint and keys are required")
	}

	err = h.store.UpsertPushSubscription(ctx, &models.PushSubscription{
		UserID:   userID,
		Endpoint: sub.Endpoint,
		P256dh:   sub.Keys.P256dh,
		Auth:     sub.Keys.Auth,
	})
	if err != nil {
		return nil, apiError(err)
	}
	return success(), nil
}

type PushMessageBody struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

func (b PushMessageBody) message() push.Message {
	return push.Message{Title: b.Title, Body: b.Body, URL: b.URL, Tag: b.Tag}
}

type SendPushInput struct {
	auth.AuthInput
	Body struct {
		PushMessageBody
		UserIDs []uint `json:"userIds,omitempty" doc:"Limit delivery to these users; everyone when empty"`
	}
}

type PushResultOutput struct {
	Body struct {
		Success bool `json:"success"`
		push.Result
	}
}

func pushResult(r push.Result) *PushResultOutput {
	res := &PushResultOutput{}
	res.Body.Success = true
	res.Body.Result = r
	return res
}

func (h *PushHandler) HandleSend(ctx context.Context, input *SendPushInput) (*PushResultOutput, error) {
	if _, err := h.auth.RequireAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if input.Body.Title == "" {
		return nil, huma.Error400BadRequest("title is required")
	}

	msg := input.Body.message()
	var (
		result push.Result
		err    error
	)
	if len(input.Body.UserIDs) > 0 {
		result, err = h.dispatcher.SendToUsers(ctx, input.Body.UserIDs, msg)
	} else {
		result, err = h.dispatcher.Broadcast(ctx, msg)
	}
	if err != nil {
		return nil, apiError(err)
	}
	return pushResult(result), nil
}

type SendPushToUserInput struct {
	auth.AuthInput
	Body struct {
		PushMessageBody
		UserID uint   `json:"userId,omitempty"`
		Email  string `json:"email,omitempty"`
	}
}

func (h *PushHandler) HandleSendToUser(ctx context.Context, input *SendPushToUserInput) (*PushResultOutput, error) {
	if _, err := h.auth.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if input.Body.Title == "" {
		return nil, huma.Error400BadRequest("title is required")
	}

	userID := input.Body.UserID
	if userID == 0 {
		email := strings.TrimSpace(input.Body.Email)
		if email == "" {
			return nil, huma.Error400BadRequest("userId or email is required")
		}
		user, err := h.store.FindUserByEmail(ctx, email)
		if err != nil {
			return nil, apiError(err)
		}
		userID = user.ID
	}

	result, err := h.dispatcher.SendToUsers(ctx, []uint{userID}, input.Body.message())
	if err != nil {
		return nil, apiError(err)
	}
	return pushResult(result), nil
}
