package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"croquis-cli/layout"
	"croquis-cli/model"
	"croquis-cli/service"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
)

var showCmd = &cobra.Command{
	Use:   "show [event-id]",
	Short: "Print an event's layout as tables",
	Long:  `Print the areas and seat counts of an event's layout without opening the editor.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := resolveToken()
		if err != nil {
			return err
		}
		if _, err := sessionNotice(token, time.Now()); err != nil {
			return err
		}
		client := newClient(token)
		ctx := context.Background()

		eventID := eventFlag
		if eventID == 0 {
			eventID = cfg.EventID
		}
		if len(args) == 1 {
			if eventID, err = parseEventID(args[0]); err != nil {
				return err
			}
		}
		if eventID == 0 {
			if eventID, err = promptSelectEvent(ctx, client); err != nil {
				return err
			}
		}

		event, err := client.GetEvent(ctx, eventID)
		if err != nil {
			return errors.New(service.UserMessage(err))
		}
		raw, err := client.GetLayout(ctx, eventID)
		if err != nil {
			return errors.New(service.UserMessage(err))
		}
		l, seats := layout.Normalize(raw)
		renderLayout(event, l, seats)
		return nil
	},
}

func parseEventID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid event id %q", raw)
	}
	return id, nil
}

func promptSelectEvent(ctx context.Context, client *service.Client) (int64, error) {
	events, err := client.ListEvents(ctx)
	if err != nil {
		return 0, errors.New(service.UserMessage(err))
	}
	if len(events) == 0 {
		return 0, errors.New("no events found")
	}

	eventIDByName := make(map[string]int64, len(events))
	for _, event := range events {
		eventIDByName[fmt.Sprintf("%s (#%d)", event.Name, event.Id)] = event.Id
	}
	names := maps.Keys(eventIDByName)
	sort.Strings(names)

	searcher := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(names[index]), strings.ToLower(input))
	}
	selectEvent := promptui.Select{
		Label:    "Select Event",
		Items:    names,
		Size:     10,
		Searcher: searcher,
	}
	_, name, err := selectEvent.Run()
	if err != nil {
		return 0, err
	}
	eventID, ok := eventIDByName[name]
	if !ok {
		return 0, errors.New("invalid event")
	}
	return eventID, nil
}

func renderLayout(event model.Event, l layout.Layout, seats []layout.Seat) {
	fmt.Printf("%s • %s • %s\n", event.Name, event.VenueName, event.Date)

	perArea := make(map[int64]map[layout.Status]int)
	for _, seat := range seats {
		if perArea[seat.AreaID] == nil {
			perArea[seat.AreaID] = make(map[layout.Status]int)
		}
		perArea[seat.AreaID][seat.Status]++
	}

	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Area", "Id", "Origin", "Position", "Status", "Seats"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, WidthMax: 24},
		{Number: 2, AutoMerge: true},
		{Number: 3, AutoMerge: true},
		{Number: 4, AutoMerge: true},
	})
	t.Style().Options.SeparateRows = true

	totals := make(map[layout.Status]int)
	for _, area := range l.Areas {
		position := fmt.Sprintf("%.0f, %.0f", area.X, area.Y)
		counts := perArea[area.AreaID]
		if len(counts) == 0 {
			t.AppendRow(table.Row{area.Label(), area.ID, area.Origin.String(), position, "-", 0}, rowConfigAutoMerge)
			t.AppendSeparator()
			continue
		}
		statuses := maps.Keys(counts)
		sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
		var rows []table.Row
		for _, status := range statuses {
			rows = append(rows, table.Row{area.Label(), area.ID, area.Origin.String(), position, string(status), counts[status]})
			totals[status] += counts[status]
		}
		t.AppendRows(rows, rowConfigAutoMerge)
		t.AppendSeparator()
	}
	t.Render()

	summary := table.NewWriter()
	summary.SetOutputMirror(os.Stdout)
	summary.AppendHeader(table.Row{"Status", "Seats"})
	for _, status := range layout.Statuses {
		summary.AppendRow(table.Row{string(status), totals[status]})
	}
	summary.AppendFooter(table.Row{"Capacity", event.Capacity})
	summary.AppendFooter(table.Row{"Sold", event.Sold()})
	summary.Render()
}
