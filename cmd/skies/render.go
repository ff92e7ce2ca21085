package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/demskies/demskies/internal/skies"
)

type renderer struct {
	w      io.Writer
	events int
}

func (r *renderer) prompt() {
	fmt.Fprint(r.w, "city or ZIP> ")
}

func (r *renderer) failure(err error) {
	fmt.Fprintf(r.w, "\n%v\n", err)
}

func (r *renderer) render(vm *skies.ViewModel) {
	fmt.Fprintf(r.w, "\n%s\n", vm.Location)
	fmt.Fprintf(r.w, "  %d°F / %d°C  %s (feels like %d°F / %d°C)\n",
		vm.TempF, vm.TempC, vm.Condition, vm.FeelsLikeF, vm.FeelsLikeC)
	fmt.Fprintf(r.w, "  Humidity %d%%  High %d°F / %d°C  Low %d°F / %d°C\n",
		vm.Humidity, vm.TodayHighF, vm.TodayHighC, vm.TodayLowF, vm.TodayLowC)
	fmt.Fprintf(r.w, "  Sunrise %s  Sunset %s\n", vm.Sunrise, vm.Sunset)

	if len(vm.Forecast) > 0 {
		fmt.Fprintf(r.w, "\n%d-day forecast\n", len(vm.Forecast))
		tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
		for _, d := range vm.Forecast {
			fmt.Fprintf(tw, "  %s\t%d°F / %d°F\t%d°C / %d°C\t%s\n",
				d.DayLabel, d.HighF, d.LowF, d.HighC, d.LowC, d.Condition)
		}
		_ = tw.Flush()
	}

	fmt.Fprintf(r.w, "\nMoon  %s %s\n", vm.MoonPhase.Glyph, vm.MoonPhase.Name)

	if next := vm.NextEvents(r.events); len(next) > 0 {
		fmt.Fprintln(r.w, "\nUpcoming events")
		tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
		for _, e := range next {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.Date.Format("Jan 2, 2006"), e.Title, e.Description)
		}
		_ = tw.Flush()
	}
}
