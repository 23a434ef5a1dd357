package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

var ErrUnknownMutationKind = errors.New("unknown mutation kind")

type DiaryGateway interface {
	FetchPhotos(ctx context.Context, userID string, date string) ([]string, error)
	SavePhoto(ctx context.Context, userID string, date string, image string) error
	DeletePhoto(ctx context.Context, userID string, date string, index int) error
	FetchMemo(ctx context.Context, userID string, date string) (string, error)
	SaveMemo(ctx context.Context, userID string, date string, memo string) error
}

// DiaryCommand is one diary mutation. Apply changes local state before the
// backend call, and Rollback compensates when the call fails.
type DiaryCommand interface {
	Kind() string
	Date() string
	Apply(book *DiaryBook) error
	Rollback(book *DiaryBook)
	Persist(ctx context.Context, gateway DiaryGateway, userID string) error
	Payload() ([]byte, error)
}

// rebaser is implemented by commands whose stored target must be located
// again on the backend before a replay persists them.
type rebaser interface {
	Rebase(ctx context.Context, gateway DiaryGateway, userID string) error
}

type photoAppendPayload struct {
	Image string `json:"image"`
}

type photoDeletePayload struct {
	Index int    `json:"index"`
	Image string `json:"image,omitempty"`
}

type memoSavePayload struct {
	Memo string `json:"memo"`
}

type appendPhotoCommand struct {
	date  string
	image string
}

func NewAppendPhotoCommand(date string, image string) DiaryCommand {
	return &appendPhotoCommand{date: date, image: image}
}

func (command *appendPhotoCommand) Kind() string { return models.MutationPhotoAppend }
func (command *appendPhotoCommand) Date() string { return command.date }

func (command *appendPhotoCommand) Apply(book *DiaryBook) error {
	book.AppendPhoto(command.date, command.image)
	return nil
}

func (command *appendPhotoCommand) Rollback(book *DiaryBook) {
	book.WithdrawPhoto(command.date, command.image)
}

func (command *appendPhotoCommand) Persist(ctx context.Context, gateway DiaryGateway, userID string) error {
	return gateway.SavePhoto(ctx, userID, command.date, command.image)
}

func (command *appendPhotoCommand) Payload() ([]byte, error) {
	return json.Marshal(photoAppendPayload{Image: command.image})
}

// deletePhotoCommand removes one photo. The backend addresses photos by
// index, so once the image is known the index is only a hint and is resolved
// again against whatever list the command runs on.
type deletePhotoCommand struct {
	date       string
	index      int
	image      string
	localIndex int
	removed    string
}

func NewDeletePhotoCommand(date string, index int) DiaryCommand {
	return &deletePhotoCommand{date: date, index: index}
}

func (command *deletePhotoCommand) Kind() string { return models.MutationPhotoDelete }
func (command *deletePhotoCommand) Date() string { return command.date }

func (command *deletePhotoCommand) Apply(book *DiaryBook) error {
	index := command.index
	if command.image != "" {
		index = book.PhotoIndex(command.date, command.image, command.index)
		if index < 0 {
			return ErrPhotoIndexOutOfRange
		}
	}
	removed, err := book.RemovePhoto(command.date, index)
	if err != nil {
		return err
	}
	command.index = index
	command.localIndex = index
	command.image = removed
	command.removed = removed
	return nil
}

func (command *deletePhotoCommand) Rollback(book *DiaryBook) {
	if command.removed == "" {
		return
	}
	book.InsertPhoto(command.date, command.localIndex, command.removed)
	command.removed = ""
}

// Rebase points the command at the backend's current position of its image.
// It returns ErrPhotoIndexOutOfRange once the image is gone.
func (command *deletePhotoCommand) Rebase(ctx context.Context, gateway DiaryGateway, userID string) error {
	if command.image == "" {
		return nil
	}
	photos, err := gateway.FetchPhotos(ctx, userID, command.date)
	if err != nil {
		return err
	}
	index := nearestPhotoIndex(photos, command.image, command.index)
	if index < 0 {
		return ErrPhotoIndexOutOfRange
	}
	command.index = index
	return nil
}

func (command *deletePhotoCommand) Persist(ctx context.Context, gateway DiaryGateway, userID string) error {
	return gateway.DeletePhoto(ctx, userID, command.date, command.index)
}

func (command *deletePhotoCommand) Payload() ([]byte, error) {
	return json.Marshal(photoDeletePayload{Index: command.index, Image: command.image})
}

type saveMemoCommand struct {
	date     string
	memo     string
	previous string
	had      bool
	applied  bool
}

func NewSaveMemoCommand(date string, memo string) DiaryCommand {
	return &saveMemoCommand{date: date, memo: memo}
}

func (command *saveMemoCommand) Kind() string { return models.MutationMemoSave }
func (command *saveMemoCommand) Date() string { return command.date }

func (command *saveMemoCommand) Apply(book *DiaryBook) error {
	command.previous, command.had = book.SetMemo(command.date, command.memo)
	command.applied = true
	return nil
}

func (command *saveMemoCommand) Rollback(book *DiaryBook) {
	if !command.applied {
		return
	}
	book.RestoreMemo(command.date, command.memo, command.previous, command.had)
	command.applied = false
}

func (command *saveMemoCommand) Persist(ctx context.Context, gateway DiaryGateway, userID string) error {
	return gateway.SaveMemo(ctx, userID, command.date, command.memo)
}

func (command *saveMemoCommand) Payload() ([]byte, error) {
	return json.Marshal(memoSavePayload{Memo: command.memo})
}

// DecodeDiaryCommand rebuilds a command stored in the pending queue.
func DecodeDiaryCommand(kind string, date string, payload []byte) (DiaryCommand, error) {
	switch kind {
	case models.MutationPhotoAppend:
		decoded := photoAppendPayload{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return NewAppendPhotoCommand(date, decoded.Image), nil
	case models.MutationPhotoDelete:
		decoded := photoDeletePayload{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return &deletePhotoCommand{date: date, index: decoded.Index, image: decoded.Image}, nil
	case models.MutationMemoSave:
		decoded := memoSavePayload{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return NewSaveMemoCommand(date, decoded.Memo), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutationKind, kind)
	}
}
