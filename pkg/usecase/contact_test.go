package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/usecase"
)

type recordingNotifier struct {
	messages []*model.ContactMessage
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, msg *model.ContactMessage) error {
	n.messages = append(n.messages, msg)
	return n.err
}

func validContact() *model.ContactMessage {
	return &model.ContactMessage{
		Name:    "Ada",
		Email:   "ada@example.com",
		Message: "I would like to discuss a project.",
	}
}

func TestContactSubmitDelivers(t *testing.T) {
	notifier := &recordingNotifier{}
	uc := newChatUseCases(t, &mockLLMClient{}, usecase.WithNotifier(notifier))

	result, err := uc.Contact.Submit(context.Background(), validContact())
	gt.NoError(t, err).Required()
	gt.Value(t, result.Status).Equal(model.ContactStatusSent)
	gt.Array(t, notifier.messages).Length(1)
}

func TestContactSubmitValidation(t *testing.T) {
	notifier := &recordingNotifier{}
	uc := newChatUseCases(t, &mockLLMClient{}, usecase.WithNotifier(notifier))
	ctx := context.Background()

	cases := []struct {
		name string
		msg  *model.ContactMessage
	}{
		{"empty name", &model.ContactMessage{Email: "a@b.co", Message: "hi"}},
		{"long name", &model.ContactMessage{Name: strings.Repeat("x", 101), Email: "a@b.co", Message: "hi"}},
		{"bad email", &model.ContactMessage{Name: "Ada", Email: "not-an-email", Message: "hi"}},
		{"empty message", &model.ContactMessage{Name: "Ada", Email: "a@b.co"}},
		{"long message", &model.ContactMessage{Name: "Ada", Email: "a@b.co", Message: strings.Repeat("x", 1001)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Contact.Submit(ctx, tc.msg)
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, usecase.ErrTagValidation))
		})
	}

	// Nothing invalid reaches the notifier.
	gt.Array(t, notifier.messages).Length(0)
}

func TestContactSubmitDeliveryFailure(t *testing.T) {
	notifier := &recordingNotifier{err: goerr.New("webhook rejected")}
	uc := newChatUseCases(t, &mockLLMClient{}, usecase.WithNotifier(notifier))

	result, err := uc.Contact.Submit(context.Background(), validContact())
	gt.NoError(t, err).Required()
	gt.Value(t, result.Status).Equal(model.ContactStatusFailed)
}

func TestContactSubmitWithoutNotifier(t *testing.T) {
	uc := newChatUseCases(t, &mockLLMClient{})

	result, err := uc.Contact.Submit(context.Background(), validContact())
	gt.NoError(t, err).Required()
	gt.Value(t, result.Status).Equal(model.ContactStatusSent)
	gt.True(t, result.Info != "")
}
