package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strayaid-systems/strayaid/internal/events"
	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/internal/repository"
)

func seedCase(t *testing.T, repo *repository.InMemoryRepository, state string) *models.Case {
	t.Helper()

	responderID := "ngo-1"
	kase := &models.Case{
		ID:          "case-1",
		ReporterID:  "citizen-1",
		Description: "dog near the market",
		Condition:   models.ConditionStray,
		Urgency:     models.UrgencyMedium,
		State:       state,
		ResponderID: &responderID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.CreateCase(context.Background(), kase))
	return kase
}

func textMessage(content string) *models.AppendMessageRequest {
	return &models.AppendMessageRequest{Type: models.MessageTypeText, Content: content}
}

func TestAppendAssignsGaplessSeq(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	engine := NewEngine(repo, nil, nil, nil)
	kase := seedCase(t, repo, models.CaseStateAcknowledged)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		msg, err := engine.Append(ctx, kase.ID, "citizen-1", textMessage(fmt.Sprintf("update %d", i)))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), msg.Seq)
	}
}

func TestConcurrentAppendsStayGapless(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	engine := NewEngine(repo, nil, nil, nil)
	kase := seedCase(t, repo, models.CaseStateInProgress)
	ctx := context.Background()

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := "citizen-1"
			if i%2 == 0 {
				sender = "ngo-1"
			}
			_, err := engine.Append(ctx, kase.ID, sender, textMessage(fmt.Sprintf("msg %d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs, err := engine.Read(ctx, kase.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, msgs, n)
	for i, m := range msgs {
		assert.Equal(t, uint64(i+1), m.Seq, "no gaps, no duplicates")
	}
}

func TestAppendRejectedOnClosedThreads(t *testing.T) {
	ctx := context.Background()

	for _, state := range []string{models.CaseStateWithdrawn, models.CaseStateClosed} {
		repo := repository.NewInMemoryRepository()
		engine := NewEngine(repo, nil, nil, nil)
		kase := seedCase(t, repo, state)

		_, err := engine.Append(ctx, kase.ID, "citizen-1", textMessage("anyone there?"))
		assert.ErrorIs(t, err, ErrThreadClosed, "state %s", state)
	}
}

func TestResolvedThreadStaysWritable(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	engine := NewEngine(repo, nil, nil, nil)
	kase := seedCase(t, repo, models.CaseStateResolved)

	_, err := engine.Append(context.Background(), kase.ID, "citizen-1", textMessage("thank you!"))
	assert.NoError(t, err)
}

func TestClosedThreadStaysReadable(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	engine := NewEngine(repo, nil, nil, nil)
	kase := seedCase(t, repo, models.CaseStateInProgress)
	ctx := context.Background()

	_, err := engine.Append(ctx, kase.ID, "citizen-1", textMessage("status?"))
	require.NoError(t, err)

	kase.State = models.CaseStateClosed
	require.NoError(t, repo.UpdateCase(ctx, kase))

	msgs, err := engine.Read(ctx, kase.ID, 1, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestAppendRejectsNonParticipants(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	engine := NewEngine(repo, nil, nil, nil)
	kase := seedCase(t, repo, models.CaseStateAcknowledged)

	_, err := engine.Append(context.Background(), kase.ID, "stranger", textMessage("hello"))
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestPastAssignmentHolderStaysParticipant(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	engine := NewEngine(repo, nil, nil, nil)
	kase := seedCase(t, repo, models.CaseStateAcknowledged)
	ctx := context.Background()

	declined := &models.Assignment{
		ID:          "assign-old",
		CaseID:      kase.ID,
		ResponderID: "ngo-declined",
		State:       models.AssignmentDeclined,
		ProposedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.CreateAssignment(ctx, declined))

	_, err := engine.Append(ctx, kase.ID, "ngo-declined", textMessage("sorry, was busy earlier"))
	assert.NoError(t, err)
}

func TestAppendValidation(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	engine := NewEngine(repo, nil, nil, nil)
	kase := seedCase(t, repo, models.CaseStateAcknowledged)
	ctx := context.Background()

	_, err := engine.Append(ctx, kase.ID, "citizen-1", textMessage("  "))
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = engine.Append(ctx, kase.ID, "citizen-1", &models.AppendMessageRequest{Type: models.MessageTypeImage})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = engine.Append(ctx, kase.ID, "citizen-1", &models.AppendMessageRequest{Type: "gif", Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = engine.Append(ctx, kase.ID, "citizen-1", &models.AppendMessageRequest{
		Type:       models.MessageTypeLocation,
		Attachment: "28.61,77.21",
	})
	assert.NoError(t, err)
}

func TestReadRestartsFromAnySeq(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	engine := NewEngine(repo, nil, nil, nil)
	kase := seedCase(t, repo, models.CaseStateInProgress)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		_, err := engine.Append(ctx, kase.ID, "citizen-1", textMessage(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}

	msgs, err := engine.Read(ctx, kase.ID, 7, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, uint64(7), msgs[0].Seq)

	msgs, err = engine.Read(ctx, kase.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, uint64(3), msgs[0].Seq)
	assert.Equal(t, uint64(4), msgs[1].Seq)
}

func TestAppendEmitsEvent(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	recorder := &events.Recorder{}
	engine := NewEngine(repo, nil, recorder, nil)
	kase := seedCase(t, repo, models.CaseStateAcknowledged)

	msg, err := engine.Append(context.Background(), kase.ID, "ngo-1", textMessage("on my way"))
	require.NoError(t, err)

	recorded := recorder.Recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, models.EventMessageAppended, recorded[0].Event.Kind)
	assert.Equal(t, msg.Seq, recorded[0].Event.SourceSeq, "message seq doubles as the event seq")
}
