package session

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"encounter-map-engine/encounter"
	"encounter-map-engine/grid"
)

// Authentication is handled upstream; handlers trust the viewer role set
// by that layer in the X-Viewer-Role header. Anything but "gm" is treated
// as a restricted viewer.
func viewerRole(c *fiber.Ctx) encounter.Role {
	if c.Get("X-Viewer-Role") == string(encounter.RoleGM) {
		return encounter.RoleGM
	}
	return encounter.RolePlayer
}

func requireGM(c *fiber.Ctx) bool {
	return viewerRole(c) == encounter.RoleGM
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "gm role required",
	})
}

// commandError maps a command failure onto the transport: validation
// rejections are 409 with the reason string, unknown ids 404, bad
// payloads 400.
func commandError(c *fiber.Ctx, err error) error {
	var reason encounter.RejectReason
	switch {
	case errors.As(err, &reason):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": string(reason)})
	case errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrUnknownRoom):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
}

// HandleEncounter serves the active encounter's rooms and overrides.
func (m *Manager) HandleEncounter(c *fiber.Ctx) error {
	return c.JSON(m.Info())
}

// HandleTokens serves the token collection, visibility-filtered for the
// requesting role. Hidden-room tokens never reach a player terminal.
func (m *Manager) HandleTokens(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"tokens": m.TokensForViewer(viewerRole(c)),
	})
}

// HandlePlace places a new token.
func (m *Manager) HandlePlace(c *fiber.Ctx) error {
	if !requireGM(c) {
		return forbidden(c)
	}

	var p encounter.PlacePayload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	tok, err := m.PlaceToken(p, viewerRole(c))
	if err != nil {
		return commandError(c, err)
	}

	log.Printf("placed token %s (%s %q) at (%d,%d) in room %q", tok.ID, tok.Type, tok.Name, tok.Position.X, tok.Position.Y, tok.RoomID)
	return c.Status(fiber.StatusCreated).JSON(tok)
}

// HandleMove moves an existing token.
func (m *Manager) HandleMove(c *fiber.Ctx) error {
	if !requireGM(c) {
		return forbidden(c)
	}

	var p encounter.MovePayload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	tok, err := m.MoveToken(p.TokenID, grid.Cell{X: p.X, Y: p.Y}, viewerRole(c))
	if err != nil {
		return commandError(c, err)
	}
	return c.JSON(tok)
}

// HandleRemove deletes a token. Unknown ids are a no-op, matching the
// store semantics.
func (m *Manager) HandleRemove(c *fiber.Ctx) error {
	if !requireGM(c) {
		return forbidden(c)
	}

	m.RemoveToken(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleStatus replaces a token's status set.
func (m *Manager) HandleStatus(c *fiber.Ctx) error {
	if !requireGM(c) {
		return forbidden(c)
	}

	var p encounter.StatusPayload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	flags := make([]encounter.StatusFlag, len(p.Status))
	for i, s := range p.Status {
		flags[i] = encounter.StatusFlag(s)
	}

	tok, err := m.SetTokenStatus(p.TokenID, flags)
	if err != nil {
		return commandError(c, err)
	}
	return c.JSON(tok)
}

// HandleClear empties the token collection.
func (m *Manager) HandleClear(c *fiber.Ctx) error {
	if !requireGM(c) {
		return forbidden(c)
	}

	m.ClearTokens()
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRoomVisibility sets a runtime room-visibility override.
func (m *Manager) HandleRoomVisibility(c *fiber.Ctx) error {
	if !requireGM(c) {
		return forbidden(c)
	}

	var p encounter.RoomVisibilityPayload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	if err := m.SetRoomVisibility(p.RoomID, p.Visible); err != nil {
		return commandError(c, err)
	}
	return c.JSON(m.Info())
}

// HandleDoorStatus sets a door-status override.
func (m *Manager) HandleDoorStatus(c *fiber.Ctx) error {
	if !requireGM(c) {
		return forbidden(c)
	}

	var p encounter.DoorStatusPayload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	if err := m.SetDoorStatus(p.DoorID, p.Status); err != nil {
		return commandError(c, err)
	}
	return c.JSON(m.Info())
}

// HandleSwitch activates another encounter, clearing the session record.
func (m *Manager) HandleSwitch(c *fiber.Ctx) error {
	if !requireGM(c) {
		return forbidden(c)
	}

	var p encounter.SwitchPayload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	if err := m.SwitchEncounter(p.EncounterID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(m.Info())
}
