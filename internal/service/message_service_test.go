package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatloom/chat-service/internal/content"
	"github.com/chatloom/chat-service/internal/domain"
	"github.com/chatloom/chat-service/internal/media"
	apperrors "github.com/chatloom/chat-service/pkg/util/errorutil"
)

type fakeMessageRepo struct {
	stored    map[string]*domain.Message
	nextID    int
	createErr error
	deleteErr error
	deleted   []string
	remaining map[string]bool // threadID|userID -> has messages after delete
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{stored: map[string]*domain.Message{}, remaining: map[string]bool{}}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	msg.ID = "msg-" + strconv.Itoa(r.nextID)
	msg.CreatedAt = time.Now()
	copied := *msg
	r.stored[msg.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	msg, ok := r.stored[id]
	if !ok {
		return nil, nil
	}
	copied := *msg
	return &copied, nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, deleterID, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, deleterID+"|"+id)
	delete(r.stored, id)
	return nil
}

func (r *fakeMessageRepo) SenderHasMessagesInThread(_ context.Context, threadID, userID string) (bool, error) {
	return r.remaining[threadID+"|"+userID], nil
}

type fakeThreadRepo struct {
	threads        map[string]*domain.Thread
	getErr         error
	lastActiveSets []string
}

func (r *fakeThreadRepo) GetByID(_ context.Context, id string) (*domain.Thread, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.threads[id], nil
}

func (r *fakeThreadRepo) SetLastActive(_ context.Context, threadID string) error {
	r.lastActiveSets = append(r.lastActiveSets, threadID)
	return nil
}

type fakeParticipantRepo struct {
	withNotifications    []string
	withoutNotifications []string
	removed              []string
	lastSeenSets         []string
}

func (r *fakeParticipantRepo) Create(_ context.Context, threadID, userID string) error {
	r.withNotifications = append(r.withNotifications, threadID+"|"+userID)
	return nil
}

func (r *fakeParticipantRepo) CreateWithoutNotifications(_ context.Context, threadID, userID string) error {
	r.withoutNotifications = append(r.withoutNotifications, threadID+"|"+userID)
	return nil
}

func (r *fakeParticipantRepo) Delete(_ context.Context, threadID, userID string) error {
	r.removed = append(r.removed, threadID+"|"+userID)
	return nil
}

func (r *fakeParticipantRepo) SetLastSeen(_ context.Context, threadID, userID string) error {
	r.lastSeenSets = append(r.lastSeenSets, threadID+"|"+userID)
	return nil
}

type fakePermissionRepo struct {
	community map[string]*domain.Permissions // communityID|userID
	channel   map[string]*domain.Permissions // channelID|userID
	calls     int
}

func (r *fakePermissionRepo) GetUserPermissionsInCommunity(_ context.Context, communityID, userID string) (*domain.Permissions, error) {
	r.calls++
	return r.community[communityID+"|"+userID], nil
}

func (r *fakePermissionRepo) GetUserPermissionsInChannel(_ context.Context, channelID, userID string) (*domain.Permissions, error) {
	r.calls++
	return r.channel[channelID+"|"+userID], nil
}

type fakeUploader struct {
	url     string
	err     error
	uploads []media.FileUpload
}

func (u *fakeUploader) Upload(_ context.Context, upload media.FileUpload, _, _ string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.uploads = append(u.uploads, upload)
	return u.url, nil
}

type stubDetector struct {
	language string
	err      error
}

func (d stubDetector) Detect(string) (string, error) {
	return d.language, d.err
}

type testEnv struct {
	svc          *MessageService
	messages     *fakeMessageRepo
	threads      *fakeThreadRepo
	participants *fakeParticipantRepo
	permissions  *fakePermissionRepo
	uploader     *fakeUploader
}

func newTestEnv(detector content.LanguageDetector) *testEnv {
	env := &testEnv{
		messages:     newFakeMessageRepo(),
		threads:      &fakeThreadRepo{threads: map[string]*domain.Thread{}},
		participants: &fakeParticipantRepo{},
		permissions: &fakePermissionRepo{
			community: map[string]*domain.Permissions{},
			channel:   map[string]*domain.Permissions{},
		},
		uploader: &fakeUploader{url: "https://cdn.example.com/chat-uploads/threads/t1/file.png"},
	}
	if detector == nil {
		detector = stubDetector{language: content.LanguageUnknown}
	}
	env.svc = NewMessageService(MessageDependencies{
		MessageRepo:     env.messages,
		ThreadRepo:      env.threads,
		ParticipantRepo: env.participants,
		PermissionRepo:  env.permissions,
		Resolver:        NewPermissionResolver(env.permissions, nil, time.Minute, zap.NewNop()),
		Classifier:      content.NewClassifier(detector, zap.NewNop()),
		Uploader:        env.uploader,
		Logger:          zap.NewNop(),
	})
	return env
}

func strPtr(s string) *string { return &s }

func sender() *domain.User {
	return &domain.User{ID: "user-1", Name: "Ada", Status: domain.UserStatusActive}
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestAddMessageRequiresAuthentication(t *testing.T) {
	env := newTestEnv(nil)

	_, err := env.svc.AddMessage(context.Background(), nil, MessageInput{
		ThreadID:    "t1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeText,
		Body:        "hello",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthenticated, errCode(t, err))
	assert.Empty(t, env.messages.stored)
}

func TestAddMessageUnknownTypeIsRejected(t *testing.T) {
	env := newTestEnv(nil)

	_, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "t1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageType("voicemail"),
		Body:        "hello",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnknownMessageType, errCode(t, err))
	assert.Empty(t, env.messages.stored)
}

func TestAddMessageMissingThreadStillPersists(t *testing.T) {
	env := newTestEnv(nil)

	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "ghost-thread",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeText,
		Body:        "hello",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Empty(t, env.participants.withNotifications)
	assert.Empty(t, env.participants.withoutNotifications)
	// no community can be resolved, so the projection carries defaults
	require.NotNil(t, msg.ContextPermissions)
	assert.Equal(t, 0, msg.ContextPermissions.Reputation)
}

func TestAddMessageDirectMessageSideEffects(t *testing.T) {
	env := newTestEnv(nil)
	env.threads.threads["dm1"] = &domain.Thread{ID: "dm1", Type: domain.ThreadTypeDirectMessage}

	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "dm1",
		ThreadType:  domain.ThreadTypeDirectMessage,
		MessageType: domain.MessageTypeText,
		Body:        "hey",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"dm1"}, env.threads.lastActiveSets)
	assert.Equal(t, []string{"dm1|user-1"}, env.participants.lastSeenSets)
	assert.Empty(t, env.participants.withNotifications)
	assert.Nil(t, msg.ContextPermissions, "direct messages are returned unmodified")
}

func TestAddMessageStoryRegistersParticipant(t *testing.T) {
	env := newTestEnv(nil)
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory}

	_, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeText,
		Body:        "hello",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"s1|user-1"}, env.participants.withNotifications)
	assert.Empty(t, env.participants.withoutNotifications)
}

func TestAddMessageWatercoolerWins(t *testing.T) {
	env := newTestEnv(nil)
	env.threads.threads["w1"] = &domain.Thread{ID: "w1", Type: domain.ThreadTypeStory, Watercooler: true}

	_, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "w1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeText,
		Body:        "hello",
	})

	require.NoError(t, err)
	assert.Empty(t, env.participants.withNotifications)
	assert.Equal(t, []string{"w1|user-1"}, env.participants.withoutNotifications)
}

func TestAddMessageDraftJSTagsCodeBlock(t *testing.T) {
	env := newTestEnv(stubDetector{language: "Go"})
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory}

	body := `{"blocks":[{"key":"a1","type":"code-block","text":"func main() {}","data":{}}],"entityMap":{}}`
	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeDraftJS,
		Body:        body,
	})

	require.NoError(t, err)
	doc, err := content.ParseDraftDocument(msg.Content.Body)
	require.NoError(t, err)
	block := content.FirstBlock(doc)
	require.NotNil(t, block)
	data, ok := block["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "go", data["syntax"])
}

func TestAddMessageDraftJSDetectorFailureIsSwallowed(t *testing.T) {
	env := newTestEnv(stubDetector{err: errors.New("detector exploded")})
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory}

	body := `{"blocks":[{"key":"a1","type":"code-block","text":"???","data":{}}],"entityMap":{}}`
	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeDraftJS,
		Body:        body,
	})

	require.NoError(t, err)
	assert.JSONEq(t, body, msg.Content.Body)
}

func TestAddMessageDraftJSUnknownLanguageLeavesBody(t *testing.T) {
	env := newTestEnv(stubDetector{language: content.LanguageUnknown})
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory}

	body := `{"blocks":[{"key":"a1","type":"code-block","text":"???","data":{"x":1}}],"entityMap":{}}`
	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeDraftJS,
		Body:        body,
	})

	require.NoError(t, err)
	assert.JSONEq(t, body, msg.Content.Body)
}

func TestAddMessageDraftJSNonCodeFirstBlock(t *testing.T) {
	env := newTestEnv(stubDetector{language: "Go"})
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory}

	body := `{"blocks":[{"key":"a1","type":"unstyled","text":"just words","data":{}}],"entityMap":{}}`
	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeDraftJS,
		Body:        body,
	})

	require.NoError(t, err)
	assert.JSONEq(t, body, msg.Content.Body)
}

func TestAddMessageMediaUploadsAndRebuilds(t *testing.T) {
	env := newTestEnv(nil)
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory, CommunityID: strPtr("c1")}

	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeMedia,
		File: &media.FileUpload{
			Name: "photo.png",
			Size: 2048,
			Type: "image/png",
			Data: []byte("not-really-a-png"),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, env.uploader.url, msg.Content.Body)
	require.NotNil(t, msg.File)
	assert.Equal(t, "photo.png", msg.File.Name)
	assert.Equal(t, int64(2048), msg.File.Size)
	assert.Equal(t, "image/png", msg.File.Type)
	require.NotNil(t, msg.ContextPermissions)
	require.NotNil(t, msg.ContextPermissions.CommunityID)
	assert.Equal(t, "c1", *msg.ContextPermissions.CommunityID)
}

func TestAddMessageMediaUploadFailureAbortsPersistence(t *testing.T) {
	env := newTestEnv(nil)
	env.uploader.err = errors.New("bucket unreachable")
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory}

	_, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeMedia,
		File:        &media.FileUpload{Name: "photo.png", Size: 10, Type: "image/png"},
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUpstreamFailure, errCode(t, err))
	assert.Contains(t, err.Error(), "bucket unreachable")
	assert.Empty(t, env.messages.stored)
}

func TestAddMessageStoreFailureSurfacesMessageText(t *testing.T) {
	env := newTestEnv(nil)
	env.messages.createErr = errors.New("connection reset by peer")

	_, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeText,
		Body:        "hello",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUpstreamFailure, errCode(t, err))
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestAddMessageEnrichmentDefaults(t *testing.T) {
	env := newTestEnv(nil)
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory, CommunityID: strPtr("c1")}

	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeText,
		Body:        "hello",
	})

	require.NoError(t, err)
	require.NotNil(t, msg.ContextPermissions)
	assert.Equal(t, 0, msg.ContextPermissions.Reputation)
	assert.False(t, msg.ContextPermissions.IsModerator)
	assert.False(t, msg.ContextPermissions.IsOwner)
	assert.Nil(t, msg.ContextPermissions.CommunityID, "only media messages carry the community id")
}

func TestAddMessageEnrichmentUsesPermissionRecord(t *testing.T) {
	env := newTestEnv(nil)
	env.threads.threads["s1"] = &domain.Thread{ID: "s1", Type: domain.ThreadTypeStory, CommunityID: strPtr("c1")}
	env.permissions.community["c1|user-1"] = &domain.Permissions{UserID: "user-1", Reputation: 42, IsModerator: true}

	msg, err := env.svc.AddMessage(context.Background(), sender(), MessageInput{
		ThreadID:    "s1",
		ThreadType:  domain.ThreadTypeStory,
		MessageType: domain.MessageTypeText,
		Body:        "hello",
	})

	require.NoError(t, err)
	require.NotNil(t, msg.ContextPermissions)
	assert.Equal(t, 42, msg.ContextPermissions.Reputation)
	assert.True(t, msg.ContextPermissions.IsModerator)
	assert.False(t, msg.ContextPermissions.IsOwner)
}

func storeMessage(t *testing.T, env *testEnv, threadType domain.ThreadType, threadID, senderID string) *domain.Message {
	t.Helper()
	msg := &domain.Message{
		ThreadID:    threadID,
		ThreadType:  threadType,
		SenderID:    senderID,
		MessageType: domain.MessageTypeText,
		Content:     domain.MessageContent{Body: "hi"},
	}
	require.NoError(t, env.messages.Create(context.Background(), msg))
	return msg
}

func TestDeleteMessageRequiresAuthentication(t *testing.T) {
	env := newTestEnv(nil)

	_, err := env.svc.DeleteMessage(context.Background(), nil, "msg-1")

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthenticated, errCode(t, err))
}

func TestDeleteMessageNotFound(t *testing.T) {
	env := newTestEnv(nil)

	_, err := env.svc.DeleteMessage(context.Background(), sender(), "missing")

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, errCode(t, err))
}

func TestDeleteMessageBySenderAlwaysSucceeds(t *testing.T) {
	for _, threadType := range []domain.ThreadType{domain.ThreadTypeDirectMessage, domain.ThreadTypeStory} {
		env := newTestEnv(nil)
		msg := storeMessage(t, env, threadType, "t1", "user-1")

		ok, err := env.svc.DeleteMessage(context.Background(), sender(), msg.ID)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"user-1|" + msg.ID}, env.messages.deleted)
	}
}

func TestDeleteForeignDirectMessageAlwaysForbidden(t *testing.T) {
	env := newTestEnv(nil)
	msg := storeMessage(t, env, domain.ThreadTypeDirectMessage, "dm1", "someone-else")
	// global moderator standing must not matter for direct messages
	env.permissions.community["c1|user-1"] = &domain.Permissions{UserID: "user-1", IsModerator: true}

	_, err := env.svc.DeleteMessage(context.Background(), sender(), msg.ID)

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, errCode(t, err))
	assert.Empty(t, env.messages.deleted)
}

func TestDeleteForeignChannelMessageRequiresModeratorRole(t *testing.T) {
	cases := []struct {
		name    string
		channel *domain.Permissions
		comm    *domain.Permissions
		allowed bool
	}{
		{"no standing", nil, nil, false},
		{"plain member", &domain.Permissions{UserID: "user-1", Reputation: 10}, nil, false},
		{"channel moderator", &domain.Permissions{UserID: "user-1", IsModerator: true}, nil, true},
		{"channel owner", &domain.Permissions{UserID: "user-1", IsOwner: true}, nil, true},
		{"community moderator", nil, &domain.Permissions{UserID: "user-1", IsModerator: true}, true},
		{"community owner", nil, &domain.Permissions{UserID: "user-1", IsOwner: true}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			env.threads.threads["s1"] = &domain.Thread{
				ID:          "s1",
				Type:        domain.ThreadTypeStory,
				CommunityID: strPtr("c1"),
				ChannelID:   strPtr("ch1"),
			}
			if tc.channel != nil {
				env.permissions.channel["ch1|user-1"] = tc.channel
			}
			if tc.comm != nil {
				env.permissions.community["c1|user-1"] = tc.comm
			}
			msg := storeMessage(t, env, domain.ThreadTypeStory, "s1", "someone-else")

			ok, err := env.svc.DeleteMessage(context.Background(), sender(), msg.ID)

			if tc.allowed {
				require.NoError(t, err)
				assert.True(t, ok)
			} else {
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeForbidden, errCode(t, err))
			}
		})
	}
}

func TestDeleteLastMessageRetractsParticipation(t *testing.T) {
	env := newTestEnv(nil)
	msg := storeMessage(t, env, domain.ThreadTypeStory, "s1", "user-1")
	env.messages.remaining["s1|user-1"] = false

	ok, err := env.svc.DeleteMessage(context.Background(), sender(), msg.ID)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"s1|user-1"}, env.participants.removed)
}

func TestDeleteKeepsParticipationWhileMessagesRemain(t *testing.T) {
	env := newTestEnv(nil)
	msg := storeMessage(t, env, domain.ThreadTypeStory, "s1", "user-1")
	env.messages.remaining["s1|user-1"] = true

	ok, err := env.svc.DeleteMessage(context.Background(), sender(), msg.ID)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, env.participants.removed)
}

func TestDeleteDirectMessageSkipsParticipantRegistry(t *testing.T) {
	env := newTestEnv(nil)
	msg := storeMessage(t, env, domain.ThreadTypeDirectMessage, "dm1", "user-1")

	ok, err := env.svc.DeleteMessage(context.Background(), sender(), msg.ID)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, env.participants.removed)
}
