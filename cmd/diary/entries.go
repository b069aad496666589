package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/form"
	"github.com/unowned-ai/diary/pkg/location"
)

func newEntriesCmd(r *runtime) *cobra.Command {
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "Manage diary entries",
		Long:  `Create, list, show, update and delete diary entries.`,
	}

	entriesCmd.AddCommand(
		newCreateEntryCmd(r),
		newListEntriesCmd(r),
		newGetEntryCmd(r),
		newUpdateEntryCmd(r),
		newDeleteEntryCmd(r),
	)
	return entriesCmd
}

// addFormFlags registers the flags shared by create and update.
func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().String("text", "", "Entry text")
	cmd.Flags().String("mood", "", "Mood: bad, average or good")
	cmd.Flags().String("location", "", "Location label, e.g. \"Seattle, WA\"")
	cmd.Flags().String("photo", "", "Path to a JPEG or PNG photo")
	cmd.Flags().Float64("lat", 0, "Latitude to resolve the location from (with --lng)")
	cmd.Flags().Float64("lng", 0, "Longitude to resolve the location from (with --lat)")
}

// applyFormFlags copies the flags the user actually set into the session.
func applyFormFlags(cmd *cobra.Command, a *app, s *form.Session) error {
	flags := cmd.Flags()

	if flags.Changed("text") {
		text, _ := flags.GetString("text")
		if err := s.SetText(text); err != nil {
			return err
		}
	}

	if flags.Changed("mood") {
		raw, _ := flags.GetString("mood")
		mood, err := entries.ParseMood(raw)
		if err != nil {
			return err
		}
		if mood.IsSet() {
			if err := s.SetMood(mood); err != nil {
				return err
			}
		}
	}

	if flags.Changed("photo") {
		path, _ := flags.GetString("photo")
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
		photo, err := a.codec.Decode(data)
		if err != nil {
			return err
		}
		if err := s.SetPhoto(photo); err != nil {
			return err
		}
	}

	if flags.Changed("location") {
		label, _ := flags.GetString("location")
		if err := s.SetLocation(label); err != nil {
			return err
		}
	}

	latSet, lngSet := flags.Changed("lat"), flags.Changed("lng")
	if latSet != lngSet {
		return errors.New("--lat and --lng must be given together")
	}
	if latSet {
		lat, _ := flags.GetFloat64("lat")
		lng, _ := flags.GetFloat64("lng")
		res := <-s.RequestLocation(cmd.Context(), location.Coordinate{Latitude: lat, Longitude: lng})
		switch {
		case res.Err != nil:
			cmd.PrintErrf("Location not resolved: %v\n", res.Err)
		case !res.OK:
			cmd.PrintErrln("No named place found at that coordinate.")
		}
	}
	return nil
}

// saveForm fills the session from flags and commits it, cancelling it on
// any failure.
func saveForm(cmd *cobra.Command, a *app, s *form.Session) (entries.Entry, error) {
	if err := applyFormFlags(cmd, a, s); err != nil {
		_, _ = s.Cancel()
		return entries.Entry{}, err
	}

	out, err := s.Save(cmd.Context())
	if err != nil {
		_, _ = s.Cancel()
		return entries.Entry{}, err
	}
	return out.Entry, nil
}

func newCreateEntryCmd(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a new entry dated now",
		Long: `Write a new entry dated now. Empty text and location are replaced by their
placeholders and a missing photo by the picture icon. Mood stays unset unless given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), r)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := saveForm(cmd, a, form.Begin(nil, a.sessionDeps()))
			if err != nil {
				return fmt.Errorf("failed to create entry: %w", err)
			}
			printEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}
	addFormFlags(cmd)
	return cmd
}

func newListEntriesCmd(r *runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all entries, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), r)
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := a.store.FetchAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				for i := range all {
					all[i].Image = nil
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}

			if len(all) == 0 {
				fmt.Fprintln(out, "No entries yet.")
				return nil
			}
			for _, e := range all {
				printEntryRow(out, e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON (photos omitted)")
	return cmd
}

func newGetEntryCmd(r *runtime) *cobra.Command {
	var photoOut string

	cmd := &cobra.Command{
		Use:   "get [entry-id]",
		Short: "Show an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), r)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.store.Get(cmd.Context(), id)
			if errors.Is(err, entries.ErrEntryNotFound) {
				return fmt.Errorf("entry not found: %s", id)
			}
			if err != nil {
				return fmt.Errorf("failed to get entry: %w", err)
			}

			printEntry(cmd.OutOrStdout(), entry)

			if photoOut != "" {
				if !entry.HasImage() {
					return errors.New("entry has no photo")
				}
				if err := os.WriteFile(photoOut, entry.Image, 0o644); err != nil {
					return fmt.Errorf("write photo: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&photoOut, "photo-out", "", "Write the stored photo to this file")
	return cmd
}

func newUpdateEntryCmd(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [entry-id]",
		Short: "Edit an entry",
		Long:  `Edit an entry. Only the given fields change; the date never does.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), r)
			if err != nil {
				return err
			}
			defer a.Close()

			existing, err := a.store.Get(cmd.Context(), id)
			if errors.Is(err, entries.ErrEntryNotFound) {
				return fmt.Errorf("entry not found: %s", id)
			}
			if err != nil {
				return fmt.Errorf("failed to get entry: %w", err)
			}

			session := form.Begin(&existing, a.sessionDeps())
			if removePhoto, _ := cmd.Flags().GetBool("remove-photo"); removePhoto {
				_ = session.SetPhoto(nil)
			}

			entry, err := saveForm(cmd, a, session)
			if errors.Is(err, entries.ErrEntryNotFound) {
				return fmt.Errorf("entry not found: %s", id)
			}
			if err != nil {
				return fmt.Errorf("failed to update entry: %w", err)
			}
			printEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}
	addFormFlags(cmd)
	cmd.Flags().Bool("remove-photo", false, "Replace the photo with the picture icon")
	return cmd
}

func newDeleteEntryCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [entry-id]",
		Short: "Delete an entry permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), r)
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.store.Delete(cmd.Context(), id)
			if errors.Is(err, entries.ErrEntryNotFound) {
				return fmt.Errorf("entry not found: %s", id)
			}
			if err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s deleted successfully.\n", id)
			return nil
		},
	}
}

func parseEntryID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid entry ID: %w", err)
	}
	return id, nil
}
