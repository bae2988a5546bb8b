package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/feedback/dto"
	"anoa.com/studentms/internal/modules/feedback/repository"
	"anoa.com/studentms/internal/testdb"
	"anoa.com/studentms/pkg/apperror"
)

var fixedNow = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func TestFeedbackReplyLifecycle(t *testing.T) {
	db := testdb.Open(t)
	svc := NewFeedbackService(repository.NewFeedbackRepository(db), func() time.Time { return fixedNow })
	catalog := testdb.SeedCatalog(t, db, "Science")
	student := testdb.SeedStudent(t, db, catalog, "amna", 1)
	other := testdb.SeedStudent(t, db, catalog, "bilal", 2)
	owner := entity.Owner{Kind: entity.KindStudent, ProfileID: student.ID}
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, owner, dto.SubmitFeedbackInput{Message: "Library hours are <i>too short</i>"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Reply != "" || submitted.RepliedAt != nil || submitted.Message != "Library hours are too short" {
		t.Fatalf("submitted = %+v", submitted)
	}
	if _, err := svc.Submit(ctx, entity.Owner{Kind: entity.KindStudent, ProfileID: other.ID}, dto.SubmitFeedbackInput{Message: "More sports"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	unanswered, err := svc.ListAll(ctx, entity.KindStudent, dto.FeedbackFilter{Unanswered: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if unanswered.Meta.TotalItems != 2 {
		t.Fatalf("unanswered = %d, want 2", unanswered.Meta.TotalItems)
	}

	if err := svc.Reply(ctx, entity.KindStudent, submitted.ID, dto.ReplyFeedbackInput{Reply: "Extended from next week"}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	mine, err := svc.ListMine(ctx, owner, dto.FeedbackFilter{})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine.Data) != 1 {
		t.Fatalf("mine = %d, want 1", len(mine.Data))
	}
	got := mine.Data[0]
	if got.Reply != "Extended from next week" || got.RepliedAt == nil || !got.RepliedAt.Equal(fixedNow) || got.Name != "amna Student" {
		t.Fatalf("feedback = %+v", got)
	}

	unanswered, err = svc.ListAll(ctx, entity.KindStudent, dto.FeedbackFilter{Unanswered: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if unanswered.Meta.TotalItems != 1 {
		t.Fatalf("unanswered = %d, want 1", unanswered.Meta.TotalItems)
	}
}

func TestFeedbackErrors(t *testing.T) {
	db := testdb.Open(t)
	svc := NewFeedbackService(repository.NewFeedbackRepository(db), nil)
	staff := testdb.SeedStaff(t, db, "teacher")
	ctx := context.Background()

	if err := svc.Reply(ctx, entity.KindStaff, 404, dto.ReplyFeedbackInput{Reply: "ok"}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	err := svc.Reply(ctx, entity.KindStaff, 1, dto.ReplyFeedbackInput{Reply: "<p></p>"})
	if field, ok := apperror.FieldOf(err); !ok || field != "reply" {
		t.Fatalf("err = %v, want reply", err)
	}

	_, err = svc.Submit(ctx, entity.Owner{Kind: entity.KindStaff, ProfileID: staff.ID}, dto.SubmitFeedbackInput{})
	if field, ok := apperror.FieldOf(err); !ok || field != "message" {
		t.Fatalf("err = %v, want message", err)
	}

	if _, err := svc.ListMine(ctx, entity.Owner{}, dto.FeedbackFilter{}); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}
