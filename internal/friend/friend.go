package friend

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/auth"
	"trilog/internal/journal"
	"trilog/internal/timeutil"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusBlocked  = "blocked"
)

var (
	ErrNotFound   = errors.New("friendship not found")
	ErrSelf       = errors.New("cannot befriend yourself")
	ErrExists     = errors.New("friendship already exists")
	ErrBlocked    = errors.New("friendship is blocked")
	ErrNotPending = errors.New("request is not pending")
	ErrForbidden  = errors.New("not the recipient of this request")
)

// Friendship is a directed request; once accepted it counts both ways.
// Rejection deletes the row, so a fresh request stays possible afterwards.
type Friendship struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	RequesterID uint64 `gorm:"index:idx_friend_pair,unique" json:"requesterId"`
	RecipientID uint64 `gorm:"index:idx_friend_pair,unique" json:"recipientId"`
	Status      string `gorm:"size:16;default:pending" json:"status"`

	RespondedAt *time.Time `json:"respondedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Service struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{DB: db, Log: log.Named("friend")}
}

// Request creates a pending friendship toward the user with the given email.
func (s *Service) Request(ctx context.Context, requesterID uint64, recipientEmail string) (Friendship, error) {
	var recipient auth.User
	err := s.DB.WithContext(ctx).Where("email = ?", recipientEmail).First(&recipient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Friendship{}, ErrNotFound
	}
	if err != nil {
		return Friendship{}, err
	}
	if recipient.ID == requesterID {
		return Friendship{}, ErrSelf
	}

	var existing Friendship
	err = s.DB.WithContext(ctx).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
			requesterID, recipient.ID, recipient.ID, requesterID).
		First(&existing).Error
	if err == nil {
		if existing.Status == StatusBlocked {
			return Friendship{}, ErrBlocked
		}
		return Friendship{}, ErrExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Friendship{}, err
	}

	f := Friendship{RequesterID: requesterID, RecipientID: recipient.ID, Status: StatusPending}
	return f, s.DB.WithContext(ctx).Create(&f).Error
}

// Respond accepts or rejects a pending request; only the recipient may act.
// A rejection removes the row entirely so the requester can try again later.
func (s *Service) Respond(ctx context.Context, userID, friendshipID uint64, accept bool) (Friendship, error) {
	var f Friendship
	err := s.DB.WithContext(ctx).First(&f, "id = ?", friendshipID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Friendship{}, ErrNotFound
	}
	if err != nil {
		return Friendship{}, err
	}
	if f.RecipientID != userID {
		return Friendship{}, ErrForbidden
	}
	if f.Status != StatusPending {
		return Friendship{}, ErrNotPending
	}

	if !accept {
		f.Status = StatusRejected
		return f, s.DB.WithContext(ctx).Delete(&Friendship{}, "id = ?", f.ID).Error
	}

	now := time.Now().UTC()
	f.Status = StatusAccepted
	f.RespondedAt = &now
	return f, s.DB.WithContext(ctx).Save(&f).Error
}

// Unfriend deletes the friendship; either side may do it.
func (s *Service) Unfriend(ctx context.Context, userID, friendshipID uint64) error {
	var f Friendship
	err := s.DB.WithContext(ctx).First(&f, "id = ?", friendshipID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if f.RequesterID != userID && f.RecipientID != userID {
		return ErrForbidden
	}
	return s.DB.WithContext(ctx).Delete(&Friendship{}, "id = ?", f.ID).Error
}

// FriendInfo is the public slice of a friend surfaced in lists.
type FriendInfo struct {
	UserID       uint64 `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	FriendshipID uint64 `json:"friendshipId"`
}

// List returns the accepted friends of the user.
func (s *Service) List(ctx context.Context, userID uint64) ([]FriendInfo, error) {
	var rows []Friendship
	err := s.DB.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR recipient_id = ?)", StatusAccepted, userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]FriendInfo, 0, len(rows))
	for _, f := range rows {
		otherID := f.RequesterID
		if otherID == userID {
			otherID = f.RecipientID
		}
		var u auth.User
		if err := s.DB.WithContext(ctx).First(&u, "id = ?", otherID).Error; err != nil {
			s.Log.Warn("friend user lookup failed", zap.Uint64("user_id", otherID), zap.Error(err))
			continue
		}
		out = append(out, FriendInfo{UserID: u.ID, Name: u.Name, Email: u.Email, FriendshipID: f.ID})
	}
	return out, nil
}

// Pending returns requests awaiting this user's response.
func (s *Service) Pending(ctx context.Context, userID uint64) ([]Friendship, error) {
	var rows []Friendship
	err := s.DB.WithContext(ctx).
		Where("status = ? AND recipient_id = ?", StatusPending, userID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

// SearchResult is a user match annotated with the friendship state, so the
// client can render the right button (add / pending / friends).
type SearchResult struct {
	UserID           uint64  `json:"userId"`
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	FriendshipStatus string  `json:"friendshipStatus"` // "none" when unrelated
	FriendshipID     *uint64 `json:"friendshipId,omitempty"`
}

// Search finds up to 20 other users by name or email substring.
func (s *Service) Search(ctx context.Context, userID uint64, query string) ([]SearchResult, error) {
	var users []auth.User
	pattern := "%" + query + "%"
	err := s.DB.WithContext(ctx).
		Where("id <> ? AND (name ILIKE ? OR email ILIKE ?)", userID, pattern, pattern).
		Limit(20).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(users))
	for _, u := range users {
		res := SearchResult{UserID: u.ID, Name: u.Name, Email: u.Email, FriendshipStatus: "none"}
		var f Friendship
		err := s.DB.WithContext(ctx).
			Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
				userID, u.ID, u.ID, userID).
			First(&f).Error
		if err == nil {
			res.FriendshipStatus = f.Status
			id := f.ID
			res.FriendshipID = &id
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// LeaderboardRow counts a user's journal entries over the trailing week.
type LeaderboardRow struct {
	UserID    uint64 `json:"userId"`
	Name      string `json:"name"`
	EntryDays int    `json:"entryDays"`
}

// Leaderboard ranks the user and their accepted friends by entry days in the
// last 7 UTC days, most active first.
func (s *Service) Leaderboard(ctx context.Context, userID uint64) ([]LeaderboardRow, error) {
	friends, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(friends)+1)
	ids = append(ids, userID)
	for _, f := range friends {
		ids = append(ids, f.UserID)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -6)
	startDate, endDate := timeutil.YMD(start), timeutil.YMD(end)

	rows := make([]LeaderboardRow, 0, len(ids))
	for _, id := range ids {
		var count int64
		err := s.DB.WithContext(ctx).
			Model(&journal.Entry{}).
			Where("user_id = ? AND date >= ? AND date <= ?", id, startDate, endDate).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		name := ""
		if id == userID {
			var u auth.User
			if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err == nil {
				name = u.Name
			}
		} else {
			for _, f := range friends {
				if f.UserID == id {
					name = f.Name
					break
				}
			}
		}
		rows = append(rows, LeaderboardRow{UserID: id, Name: name, EntryDays: int(count)})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].EntryDays > rows[j].EntryDays })
	return rows, nil
}
