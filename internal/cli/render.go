package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/i474232898/weather-client/internal/errlog"
	"github.com/i474232898/weather-client/internal/weather"
)

// printSnapshot writes the current conditions followed by the forecast table.
func printSnapshot(w io.Writer, snap weather.WeatherSnapshot) {
	loc := snap.Location.Name
	if snap.Location.Country != "" {
		loc += ", " + snap.Location.Country
	}
	c := snap.Current

	fmt.Fprintf(w, "%s\n", loc)
	fmt.Fprintf(w, "  %d°C  %s\n", c.TemperatureC, conditionText(c))
	fmt.Fprintf(w, "  Humidity %d%%  Wind %d km/h\n", c.HumidityPct, c.WindSpeedKmh)
	if icon := weather.IconURL(c.Icon); icon != "" {
		fmt.Fprintf(w, "  Icon %s\n", icon)
	}
	fmt.Fprintln(w)

	if len(snap.Forecast) == 0 {
		fmt.Fprintln(w, "No forecast available.")
		return
	}
	printSimpleTable(w, []string{"DATE", "HIGH", "LOW", "CONDITION"}, func(add func(...string)) {
		for _, d := range snap.Forecast {
			add(d.Date, temp(d.HighTempC), temp(d.LowTempC), d.Condition)
		}
	})
}

func printRecords(w io.Writer, records []errlog.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No errors recorded.")
		return
	}
	printSimpleTable(w, []string{"TIME", "CONTEXT", "KIND", "MESSAGE"}, func(add func(...string)) {
		for _, r := range records {
			add(r.Timestamp.Local().Format(time.DateTime), r.Context, r.Kind, r.Message)
		}
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSimpleTable renders rows as a left-aligned bordered table.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

func conditionText(c weather.Current) string {
	if c.Description != "" && c.Description != c.Condition {
		return fmt.Sprintf("%s (%s)", c.Condition, c.Description)
	}
	return c.Condition
}

func temp(c int) string {
	return strconv.Itoa(c) + "°C"
}
