package delivery

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jmehdipour/ux-autorater/internal/artifact"
	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Ready() error {
	return m.Called().Error(0)
}

func (m *mockMailer) Send(ctx context.Context, e model.Email) error {
	return m.Called(ctx, e).Error(0)
}

func storedReport(t *testing.T, store *artifact.Store) model.Report {
	t.Helper()
	rep := model.Report{ID: "UX_Report_a_b.com_01", Filename: "UX_Report_a_b.com_01.pdf", Data: []byte("%PDF-1.3 test")}
	require.NoError(t, store.Put(rep.Filename, rep.Data))
	return rep
}

func TestDeliverSendsSingleAttachmentAndDiscards(t *testing.T) {
	store := artifact.New(afero.NewMemMapFs())
	rep := storedReport(t, store)

	m := new(mockMailer)
	m.On("Ready").Return(nil)
	m.On("Send", mock.Anything, mock.MatchedBy(func(e model.Email) bool {
		return e.To == "a@b.com" &&
			e.From == "reports@example.com" &&
			e.Subject == DefaultSubject &&
			len(e.Attachments) == 1 &&
			e.Attachments[0].ContentType == PDFContentType &&
			e.Attachments[0].Name == rep.Filename &&
			bytes.Equal(e.Attachments[0].Data, rep.Data)
	})).Return(nil).Once()

	d := NewDispatcher(m, store, Options{From: "reports@example.com"}, zaptest.NewLogger(t))
	receipt := d.Deliver(context.Background(), "a@b.com", rep)

	assert.True(t, receipt.OK())
	assert.NoError(t, receipt.Err)
	assert.False(t, store.Exists(rep.Filename))
	m.AssertExpectations(t)
}

func TestDeliverTransportFailureIsAbsorbed(t *testing.T) {
	store := artifact.New(afero.NewMemMapFs())
	rep := storedReport(t, store)

	m := new(mockMailer)
	m.On("Ready").Return(nil)
	m.On("Send", mock.Anything, mock.Anything).Return(errors.New("535 auth failed")).Once()

	d := NewDispatcher(m, store, Options{From: "reports@example.com"}, zaptest.NewLogger(t))
	receipt := d.Deliver(context.Background(), "a@b.com", rep)

	assert.Equal(t, model.DeliveryFailed, receipt.Status)
	assert.ErrorIs(t, receipt.Err, model.ErrUpstreamService)
	assert.False(t, store.Exists(rep.Filename))
}

func TestDeliverWithoutCredentialSkipsNetwork(t *testing.T) {
	store := artifact.New(afero.NewMemMapFs())
	rep := storedReport(t, store)

	mailer := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", From: "reports@example.com"})
	d := NewDispatcher(mailer, store, Options{From: "reports@example.com"}, zaptest.NewLogger(t))
	receipt := d.Deliver(context.Background(), "a@b.com", rep)

	assert.Equal(t, model.DeliverySkipped, receipt.Status)
	assert.ErrorIs(t, receipt.Err, model.ErrConfiguration)
	assert.False(t, store.Exists(rep.Filename))
}

func TestDeliverWithoutSenderSkips(t *testing.T) {
	store := artifact.New(afero.NewMemMapFs())
	rep := storedReport(t, store)

	m := new(mockMailer)
	d := NewDispatcher(m, store, Options{}, zaptest.NewLogger(t))
	receipt := d.Deliver(context.Background(), "a@b.com", rep)

	assert.Equal(t, model.DeliverySkipped, receipt.Status)
	assert.ErrorIs(t, receipt.Err, model.ErrConfiguration)
	m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.False(t, store.Exists(rep.Filename))
}

func TestDeliverReadsArtifactWhenBytesMissing(t *testing.T) {
	store := artifact.New(afero.NewMemMapFs())
	rep := storedReport(t, store)
	want := rep.Data
	rep.Data = nil

	m := new(mockMailer)
	m.On("Ready").Return(nil)
	m.On("Send", mock.Anything, mock.MatchedBy(func(e model.Email) bool {
		return bytes.Equal(e.Attachments[0].Data, want)
	})).Return(nil).Once()

	d := NewDispatcher(m, store, Options{From: "reports@example.com"}, zaptest.NewLogger(t))
	assert.True(t, d.Deliver(context.Background(), "a@b.com", rep).OK())
	m.AssertExpectations(t)
}

func TestSMTPMailerReady(t *testing.T) {
	assert.ErrorIs(t, NewSMTPMailer(config.MailConfig{}).Ready(), model.ErrConfiguration)
	assert.ErrorIs(t, NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", From: "x@example.com"}).Ready(), model.ErrConfiguration)
	assert.NoError(t, NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", From: "x@example.com", Password: "app"}).Ready())
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage(model.Email{
		From:    "reports@example.com",
		To:      "a@b.com",
		Subject: DefaultSubject,
		Body:    DefaultBody,
		Attachments: []model.Attachment{{
			Name:        "UX_Report_a_b.com_01.pdf",
			ContentType: PDFContentType,
			Data:        []byte("%PDF-1.3 test"),
		}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Subject: "+DefaultSubject)
	assert.Contains(t, raw, "a@b.com")
	assert.Contains(t, raw, "application/pdf")
	assert.Contains(t, raw, "UX_Report_a_b.com_01.pdf")
	assert.Contains(t, raw, DefaultBody)

	_, err = buildMessage(model.Email{From: "not an address", To: "a@b.com"})
	assert.Error(t, err)
}
