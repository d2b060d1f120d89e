package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

const friendshipColumns = `id, initiator_id, recipient_id, accepted, created_at, established_at`

// pairPredicate matches a friendship between $1 and $2 in either direction.
const pairPredicate = `((initiator_id = $1 AND recipient_id = $2) OR (initiator_id = $2 AND recipient_id = $1))`

type FriendshipService struct {
	db DB
}

func NewFriendshipService(db DB) *FriendshipService {
	return &FriendshipService{db: db}
}

// Get returns the friendship between a and b in either direction, or nil
// when there is none.
func (s *FriendshipService) Get(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	return getPair(ctx, s.db, a, b)
}

func getPair(ctx context.Context, q DBConn, a, b uuid.UUID) (*models.Friendship, error) {
	f, err := scanFriendship(q.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE `+pairPredicate,
		a, b,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("get friendship", err)
	}
	return f, nil
}

func (s *FriendshipService) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	f, err := scanFriendship(s.db.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, storageError("get friendship by id", err)
	}
	return f, nil
}

// AreFriends is true only for an accepted friendship. Pending requests do
// not count.
func (s *FriendshipService) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if a == b {
		return false, nil
	}
	var friends bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE `+pairPredicate+` AND accepted)`,
		a, b,
	).Scan(&friends)
	if err != nil {
		return false, storageError("check friendship", err)
	}
	return friends, nil
}

// Initiate creates a pending friendship from initiator to recipient. If the
// pair already has a friendship in either direction and any state, that
// record is returned unchanged.
func (s *FriendshipService) Initiate(ctx context.Context, initiator, recipient uuid.UUID) (*models.Friendship, error) {
	if initiator == recipient {
		return nil, ErrCannotFriendSelf
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin initiate friendship", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := lockAccountPairForUpdate(ctx, tx, initiator, recipient); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, storageError("initiate friendship", err)
	}

	existing, err := getPair(ctx, tx, initiator, recipient)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, storageError("commit initiate friendship", err)
		}
		committed = true
		return existing, nil
	}

	f, err := scanFriendship(tx.QueryRow(ctx,
		`INSERT INTO friendships (initiator_id, recipient_id)
		 VALUES ($1, $2)
		 RETURNING `+friendshipColumns,
		initiator, recipient,
	))
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			// Lost a race with the other direction; hand back the winner.
			_ = tx.Rollback(ctx)
			committed = true
			existing, getErr := s.Get(ctx, initiator, recipient)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, storageError("insert friendship", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit initiate friendship", err)
	}
	committed = true

	return f, nil
}

// Accept moves a pending friendship to accepted. Only the recipient may
// accept; anyone else gets ErrUnauthorized and nothing changes. Accepting an
// accepted friendship returns it as is.
func (s *FriendshipService) Accept(ctx context.Context, friendshipID, actorID uuid.UUID) (*models.Friendship, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin accept friendship", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	f, err := lockFriendship(ctx, tx, friendshipID)
	if err != nil {
		return nil, err
	}
	if f.RecipientID != actorID {
		return nil, ErrUnauthorized
	}

	if !f.Accepted {
		f, err = scanFriendship(tx.QueryRow(ctx,
			`UPDATE friendships
			 SET accepted = true, established_at = NOW()
			 WHERE id = $1
			 RETURNING `+friendshipColumns,
			friendshipID,
		))
		if err != nil {
			return nil, storageError("accept friendship", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit accept friendship", err)
	}
	committed = true

	return f, nil
}

// AcceptFrom accepts the request initiatorID sent to recipientID.
func (s *FriendshipService) AcceptFrom(ctx context.Context, recipientID, initiatorID uuid.UUID) (*models.Friendship, error) {
	f, err := s.Get(ctx, initiatorID, recipientID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrFriendshipNotFound
	}
	return s.Accept(ctx, f.ID, recipientID)
}

// Revoke deletes the friendship in whatever state it is in. Declining a
// request, cancelling one and unfriending are all this operation.
func (s *FriendshipService) Revoke(ctx context.Context, friendshipID, actorID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storageError("begin revoke friendship", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	f, err := lockFriendship(ctx, tx, friendshipID)
	if err != nil {
		return err
	}
	if !f.Involves(actorID) {
		return ErrUnauthorized
	}

	if _, err := tx.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, friendshipID); err != nil {
		return storageError("delete friendship", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError("commit revoke friendship", err)
	}
	committed = true

	return nil
}

func lockFriendship(ctx context.Context, tx Tx, id uuid.UUID) (*models.Friendship, error) {
	f, err := scanFriendship(tx.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1 FOR UPDATE`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, storageError("load friendship", err)
	}
	return f, nil
}

// ListFor returns every friendship the account is part of, pending or
// accepted.
func (s *FriendshipService) ListFor(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+friendshipColumns+`
		 FROM friendships
		 WHERE initiator_id = $1 OR recipient_id = $1
		 ORDER BY created_at`,
		accountID,
	)
	if err != nil {
		return nil, storageError("list friendships", err)
	}
	defer rows.Close()

	list := []models.Friendship{}
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, storageError("scan friendship", err)
		}
		list = append(list, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list friendships", err)
	}
	return list, nil
}

func (s *FriendshipService) ListInvitationsReceived(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error) {
	list, err := s.ListFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return invitationsReceived(list, accountID), nil
}

func (s *FriendshipService) ListInvitationsSent(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error) {
	list, err := s.ListFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return invitationsSent(list, accountID), nil
}

func invitationsReceived(list []models.Friendship, accountID uuid.UUID) []models.Friendship {
	out := []models.Friendship{}
	for _, f := range list {
		if !f.Accepted && f.RecipientID == accountID {
			out = append(out, f)
		}
	}
	return out
}

func invitationsSent(list []models.Friendship, accountID uuid.UUID) []models.Friendship {
	out := []models.Friendship{}
	for _, f := range list {
		if !f.Accepted && f.InitiatorID == accountID {
			out = append(out, f)
		}
	}
	return out
}

// ListFriends returns the accepted friends of the account, by username.
func (s *FriendshipService) ListFriends(ctx context.Context, accountID uuid.UUID) ([]models.FriendSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, f.established_at, a.id, a.username, a.first_name, a.surname
		 FROM friendships f
		 JOIN accounts a ON a.id = CASE WHEN f.initiator_id = $1 THEN f.recipient_id ELSE f.initiator_id END
		 WHERE (f.initiator_id = $1 OR f.recipient_id = $1) AND f.accepted
		 ORDER BY LOWER(a.username)`,
		accountID,
	)
	if err != nil {
		return nil, storageError("list friends", err)
	}
	defer rows.Close()

	friends := []models.FriendSummary{}
	for rows.Next() {
		var fs models.FriendSummary
		if err := rows.Scan(&fs.FriendshipID, &fs.EstablishedAt, &fs.Friend.ID, &fs.Friend.Username,
			&fs.Friend.FirstName, &fs.Friend.Surname); err != nil {
			return nil, storageError("scan friend", err)
		}
		friends = append(friends, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list friends", err)
	}
	return friends, nil
}

func scanFriendship(row Row) (*models.Friendship, error) {
	f := &models.Friendship{}
	err := row.Scan(&f.ID, &f.InitiatorID, &f.RecipientID, &f.Accepted, &f.CreatedAt, &f.EstablishedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}
