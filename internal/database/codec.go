package database

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
)

// roomDoc holds the JSON-encoded columns of a room row.
type roomDoc struct {
	PlayerNames []byte
	Deck        []byte
	ActiveCards []byte
	HouseRules  []byte
	FinishOrder []byte
}

func encodeRoomDoc(r *models.Room) (roomDoc, error) {
	var doc roomDoc
	var err error
	if doc.PlayerNames, err = marshalList(r.PlayerNames); err != nil {
		return doc, err
	}
	if doc.Deck, err = marshalList(r.Deck); err != nil {
		return doc, err
	}
	if doc.ActiveCards, err = marshalList(r.ActiveCards); err != nil {
		return doc, err
	}
	if doc.HouseRules, err = json.Marshal(r.HouseRules); err != nil {
		return doc, err
	}
	if doc.FinishOrder, err = marshalList(r.FinishOrder); err != nil {
		return doc, err
	}
	return doc, nil
}

func (doc roomDoc) decodeInto(r *models.Room) error {
	fields := []struct {
		name string
		data []byte
		dst  interface{}
	}{
		{"player_names", doc.PlayerNames, &r.PlayerNames},
		{"deck", doc.Deck, &r.Deck},
		{"active_cards", doc.ActiveCards, &r.ActiveCards},
		{"house_rules", doc.HouseRules, &r.HouseRules},
		{"finish_order", doc.FinishOrder, &r.FinishOrder},
	}
	for _, f := range fields {
		if len(f.data) == 0 {
			continue
		}
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	if r.Deck == nil {
		r.Deck = []models.Card{}
	}
	if r.ActiveCards == nil {
		r.ActiveCards = []models.CardOnTable{}
	}
	if len(r.FinishOrder) == 0 {
		r.FinishOrder = nil
	}
	return nil
}

func encodeHands(p *models.Player) (cards, visible []byte, err error) {
	if cards, err = marshalList(p.Cards); err != nil {
		return nil, nil, err
	}
	visible, err = marshalList(p.VisibleCards)
	return cards, visible, err
}

func decodeHands(p *models.Player, cards, visible []byte) error {
	if err := json.Unmarshal(cards, &p.Cards); err != nil {
		return fmt.Errorf("decode cards: %w", err)
	}
	if err := json.Unmarshal(visible, &p.VisibleCards); err != nil {
		return fmt.Errorf("decode visible_cards: %w", err)
	}
	if p.Cards == nil {
		p.Cards = []models.Card{}
	}
	if len(p.VisibleCards) == 0 {
		p.VisibleCards = nil
	}
	return nil
}

// marshalList encodes nil slices as [] so columns never hold null.
func marshalList[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	return json.Marshal(list)
}

func playerIDs(players []*models.Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID.String()
	}
	return ids
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return id, nil
}
