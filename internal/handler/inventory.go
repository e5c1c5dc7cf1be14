// Package handler holds the menu actions of a logged-in session.  Each
// action prompts for its fields, runs the inventory procedure and prints
// the outcome.  Query failures are printed and logged; only prompt errors
// (io.EOF when input ends) are returned to the caller.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/displaydb/internal/console"
	"github.com/iliyamo/displaydb/internal/model"
	"github.com/iliyamo/displaydb/internal/repository"
	"github.com/iliyamo/displaydb/internal/service"
)

const (
	msgDisplayNotFound = "Digital display not found."
	msgModelNotFound   = "No model found with the specified model number."
)

// InventoryHandler bundles the dependencies of the menu actions.
type InventoryHandler struct {
	Inv *service.Inventory
	In  console.Prompter
	Out *console.Printer
	Log *zap.Logger
}

func NewInventoryHandler(inv *service.Inventory, in console.Prompter, out *console.Printer, log *zap.Logger) *InventoryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryHandler{Inv: inv, In: in, Out: out, Log: log}
}

// ListAll prints every display and then offers a model lookup.  A blank
// answer returns to the menu.
func (h *InventoryHandler) ListAll(ctx context.Context) error {
	if !h.printDisplays(ctx) {
		return nil
	}
	modelNo, err := h.In.ReadLine("Enter Model Number to view details or press Enter to return to the main menu: ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(modelNo) == "" {
		return nil
	}
	h.ModelDetail(ctx, modelNo)
	return nil
}

// Search prints the displays whose scheduler system matches exactly.
func (h *InventoryHandler) Search(ctx context.Context) error {
	scheduler, err := h.In.ReadLine("Enter Scheduler System to search: ")
	if err != nil {
		return err
	}
	ds, err := h.Inv.Displays.SearchByScheduler(ctx, scheduler)
	if err != nil {
		h.fail("Error searching data", err)
		return nil
	}
	h.Out.Displays("Search Results:", ds)
	return nil
}

// Insert adds a display, creating its model first when it is unknown.
func (h *InventoryHandler) Insert(ctx context.Context) error {
	var d model.Display
	var err error
	if d.SerialNo, err = h.In.ReadLine("Enter Serial Number: "); err != nil {
		return err
	}
	if d.SchedulerSystem, err = h.In.ReadLine("Enter Scheduler System: "); err != nil {
		return err
	}
	if d.ModelNo, err = h.In.ReadLine("Enter Model Number: "); err != nil {
		return err
	}

	var promptErr error
	details := func(string) (model.Model, error) {
		h.Out.Println("Model does not exist. Please provide model details:")
		m, err := h.readModel()
		promptErr = err
		return m, err
	}

	res, err := h.Inv.Insert(ctx, d, details)
	if res.ModelCreated {
		h.Out.Success("New model added successfully.")
	}
	if promptErr != nil {
		return promptErr
	}
	if err != nil {
		h.fail("Error inserting data", err)
		return nil
	}
	h.Out.Success("Digital display added successfully.")
	h.printDisplays(ctx)
	return nil
}

// Delete removes a display and its model once nothing references it.
func (h *InventoryHandler) Delete(ctx context.Context) error {
	serial, err := h.In.ReadLine("Enter Serial Number to delete: ")
	if err != nil {
		return err
	}

	res, err := h.Inv.Delete(ctx, serial)
	switch {
	case res.ModelNo == "" && errors.Is(err, repository.ErrDisplayNotFound):
		h.Out.Error(msgDisplayNotFound)
		return nil
	case res.ModelNo == "":
		h.fail("Error retrieving model information", err)
		return nil
	case !res.DisplayDeleted:
		h.fail("Error deleting digital display", err)
		return nil
	}

	h.Out.Success("Digital display deleted successfully.")
	h.printDisplays(ctx)
	if err != nil {
		h.fail("Error checking model usage", err)
	}
	if res.ModelRemoved {
		h.Out.Success(fmt.Sprintf("Model %s deleted successfully.", res.ModelNo))
	}
	h.printModels(ctx)
	return nil
}

// Update overwrites the scheduler system and model of a display.
func (h *InventoryHandler) Update(ctx context.Context) error {
	var d model.Display
	var err error
	if d.SerialNo, err = h.In.ReadLine("Enter Serial Number to update: "); err != nil {
		return err
	}
	if d.SchedulerSystem, err = h.In.ReadLine("Enter new Scheduler System: "); err != nil {
		return err
	}
	if d.ModelNo, err = h.In.ReadLine("Enter new Model Number: "); err != nil {
		return err
	}

	res, err := h.Inv.Update(ctx, d)
	if !res.Updated {
		switch {
		case errors.Is(err, repository.ErrDisplayNotFound):
			h.Out.Error(msgDisplayNotFound)
		case errors.Is(err, repository.ErrModelNotFound):
			h.Out.Error(msgModelNotFound)
		default:
			h.fail("Error updating data", err)
		}
		return nil
	}

	h.Out.Success("Digital display updated successfully.")
	h.printDisplays(ctx)
	if err != nil {
		h.fail("Error checking model usage", err)
	}
	if res.ModelRemoved {
		h.Out.Success(fmt.Sprintf("Model %s deleted successfully.", res.PreviousModelNo))
	}
	return nil
}

// ModelDetail prints one model looked up by exact number.
func (h *InventoryHandler) ModelDetail(ctx context.Context, modelNo string) {
	m, err := h.Inv.ModelDetail(ctx, modelNo)
	switch {
	case errors.Is(err, repository.ErrModelNotFound):
		h.Out.Println(msgModelNotFound)
	case err != nil:
		h.fail("Error retrieving model details", err)
	default:
		h.Out.ModelDetail(*m)
	}
}

// printDisplays reports whether the listing could be read.
func (h *InventoryHandler) printDisplays(ctx context.Context) bool {
	ds, err := h.Inv.Displays.List(ctx)
	if err != nil {
		h.fail("Error retrieving digital displays", err)
		return false
	}
	h.Out.Displays("Digital Displays:", ds)
	return true
}

func (h *InventoryHandler) printModels(ctx context.Context) {
	ms, err := h.Inv.Models.List(ctx)
	if err != nil {
		h.fail("Error retrieving model data", err)
		return
	}
	h.Out.Models("Models:", ms)
}

func (h *InventoryHandler) readModel() (model.Model, error) {
	var m model.Model
	fields := []struct {
		prompt string
		dst    *float64
	}{
		{"Enter Model Width: ", &m.Width},
		{"Enter Model Height: ", &m.Height},
		{"Enter Model Weight: ", &m.Weight},
		{"Enter Model Depth: ", &m.Depth},
		{"Enter Model Screen Size: ", &m.ScreenSize},
	}
	for _, f := range fields {
		v, err := h.readFloat(f.prompt)
		if err != nil {
			return m, err
		}
		*f.dst = v
	}
	return m, nil
}

// readFloat re-prompts until the answer parses as a number.
func (h *InventoryHandler) readFloat(prompt string) (float64, error) {
	for {
		s, err := h.In.ReadLine(prompt)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil {
			return v, nil
		}
		h.Out.Error("Invalid number. Please try again.")
	}
}

func (h *InventoryHandler) fail(action string, err error) {
	h.Log.Warn(strings.ToLower(action), zap.Error(err))
	h.Out.Error(action + ": " + err.Error())
}
