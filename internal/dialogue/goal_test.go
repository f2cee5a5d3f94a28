package dialogue

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tbourn/go-booking-backend/internal/intent"
)

func TestDerive(t *testing.T) {
	full := intent.Collected{Name: "Ana", Service: "Corte", DateIntent: "viernes", TimeIntent: "10:00"}

	cases := []struct {
		name      string
		c         intent.Collected
		confirmed bool
		want      Goal
	}{
		{"empty", intent.Collected{}, false, Goal{State: StateEmpty}},
		{"empty ignores confirmation", intent.Collected{}, true, Goal{State: StateEmpty}},
		{"name only", intent.Collected{Name: "Ana"}, false,
			Goal{State: StateCollecting, Missing: []string{FieldService, FieldSlot}}},
		{"date without time", intent.Collected{Name: "Ana", Service: "Corte", DateIntent: "HOY"}, false,
			Goal{State: StateCollecting, Missing: []string{FieldSlot}}},
		{"time only counts as collecting", intent.Collected{TimeIntent: "10:00"}, false,
			Goal{State: StateCollecting, Missing: []string{FieldName, FieldService, FieldSlot}}},
		{"ready", full, false, Goal{State: StateReady}},
		{"confirmed", full, true, Goal{State: StateConfirmed}},
		{"confirmation needs all fields", intent.Collected{Name: "Ana", Service: "Corte"}, true,
			Goal{State: StateCollecting, Missing: []string{FieldSlot}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Derive(tc.c, tc.confirmed)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestDirective(t *testing.T) {
	c := intent.Collected{Name: "Ana"}
	d := Derive(c, false).Directive(c)
	if !strings.Contains(d, "servicio") || !strings.Contains(d, "día y hora") || strings.Contains(d, "nombre") {
		t.Fatalf("collecting directive = %q", d)
	}

	full := intent.Collected{Name: "Ana", Service: "Corte", DateIntent: "viernes", TimeIntent: "10:00"}
	d = Derive(full, false).Directive(full)
	if !strings.Contains(d, "Ana") || !strings.Contains(d, "10:00") {
		t.Fatalf("ready directive = %q", d)
	}
	if Derive(intent.Collected{}, false).Directive(intent.Collected{}) == "" {
		t.Fatal("empty directive must not be blank")
	}
}

func TestIsAffirmative(t *testing.T) {
	yes := []string{"Sí", "si", "¡Dale!", "ok", "Confirmo", "de acuerdo", "sí, perfecto", "Claro que sí"}
	no := []string{"", "no", "sino mañana", "¿tienes a las 5?", "okey no sé", "quisiera saber si hay cupo el viernes en la tarde por favor"}
	for _, s := range yes {
		if !IsAffirmative(s) {
			t.Errorf("IsAffirmative(%q) = false", s)
		}
	}
	for _, s := range no {
		if IsAffirmative(s) {
			t.Errorf("IsAffirmative(%q) = true", s)
		}
	}
}
