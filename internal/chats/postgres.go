package chats

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"

	"github.com/example/trip-sharing/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// Ensure relies on the unique (trip_id, owner_id, requester_id) index:
// the insert is attempted first and a conflict falls back to the read,
// so concurrent accepts provision exactly one chat.
func (p *PostgresStore) Ensure(ctx context.Context, tripID, ownerID, requesterID string) (*models.Chat, bool, error) {
	c := newChat(tripID, ownerID, requesterID)
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO chats(id, trip_id, owner_id, requester_id, created_at, last_message_text, last_message_sent_by, last_message_sent_at, unread_owner, unread_requester)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (trip_id, owner_id, requester_id) DO NOTHING`,
		c.ID, c.TripID, ownerID, requesterID, c.CreatedAt,
		c.LastMessage.Text, c.LastMessage.SentBy, c.LastMessage.SentAt,
		c.Unread[ownerID], c.Unread[requesterID])
	if err != nil {
		return nil, false, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return c, true, nil
	}
	existing, err := p.getByKey(ctx, tripID, ownerID, requesterID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*models.Chat, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, chatSelect+` WHERE id=$1`, id))
}

func (p *PostgresStore) getByKey(ctx context.Context, tripID, ownerID, requesterID string) (*models.Chat, error) {
	return p.scanOne(p.db.QueryRowContext(ctx,
		chatSelect+` WHERE trip_id=$1 AND owner_id=$2 AND requester_id=$3`, tripID, ownerID, requesterID))
}

const chatSelect = `SELECT id, trip_id, owner_id, requester_id, created_at, last_message_text, last_message_sent_by, last_message_sent_at, unread_owner, unread_requester FROM chats`

func (p *PostgresStore) scanOne(row *sql.Row) (*models.Chat, error) {
	var c models.Chat
	var ownerID, requesterID string
	var unreadOwner, unreadRequester int
	err := row.Scan(&c.ID, &c.TripID, &ownerID, &requesterID, &c.CreatedAt,
		&c.LastMessage.Text, &c.LastMessage.SentBy, &c.LastMessage.SentAt,
		&unreadOwner, &unreadRequester)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Participants = [2]string{ownerID, requesterID}
	c.Unread = map[string]int{ownerID: unreadOwner, requesterID: unreadRequester}
	return &c, nil
}
