package tools

import (
	"context"
	"fmt"
	"math"
	"time"

	"ollama-go/pkg/ollama"
	"ollama-go/pkg/tool"
	"ollama-go/pkg/value"
)

// RGB is the input of rgb_to_hex; components are in [0, 1].
type RGB struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// NewRGBToHex converts normalized RGB components into a #RRGGBB string.
func NewRGBToHex() *tool.Func[RGB, string] {
	component := func(name string) value.Value {
		return value.Object(map[string]value.Value{
			"type":        value.String("number"),
			"description": value.String(name + " component, from 0 to 1"),
		})
	}
	return tool.New("rgb_to_hex", "Converts RGB components to a hexadecimal color string.",
		map[string]value.Value{
			"red":   component("Red"),
			"green": component("Green"),
			"blue":  component("Blue"),
		},
		[]string{"red", "green", "blue"},
		func(_ context.Context, in RGB) (string, error) {
			for _, c := range []float64{in.Red, in.Green, in.Blue} {
				if c < 0 || c > 1 || math.IsNaN(c) {
					return "", fmt.Errorf("component %v out of range [0, 1]", c)
				}
			}
			return fmt.Sprintf("#%02X%02X%02X", scale(in.Red), scale(in.Green), scale(in.Blue)), nil
		})
}

func scale(c float64) int {
	return int(math.Round(c * 255))
}

// TimeInput selects the zone for current_time. Empty means UTC.
type TimeInput struct {
	Timezone string `json:"timezone"`
}

// TimeOutput is the result of current_time.
type TimeOutput struct {
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	Weekday  string `json:"weekday"`
}

// NewCurrentTime reports the current time. now is injectable for tests.
func NewCurrentTime(now func() time.Time) *tool.Func[TimeInput, TimeOutput] {
	if now == nil {
		now = time.Now
	}
	return tool.New("current_time", "Returns the current date and time, optionally in an IANA time zone.",
		map[string]value.Value{
			"timezone": value.Object(map[string]value.Value{
				"type":        value.String("string"),
				"description": value.String("IANA zone name such as Europe/Paris; defaults to UTC"),
			}),
		},
		nil,
		func(_ context.Context, in TimeInput) (TimeOutput, error) {
			zone := in.Timezone
			if zone == "" {
				zone = "UTC"
			}
			loc, err := time.LoadLocation(zone)
			if err != nil {
				return TimeOutput{}, fmt.Errorf("unknown timezone %q", zone)
			}
			t := now().In(loc)
			return TimeOutput{Time: t.Format(time.RFC3339), Timezone: zone, Weekday: t.Weekday().String()}, nil
		})
}

// ModelLister is the slice of the client list_models needs.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ollama.Model, error)
}

// ModelSummary is one entry of list_models.
type ModelSummary struct {
	Name          string `json:"name"`
	Family        string `json:"family,omitempty"`
	ParameterSize string `json:"parameter_size,omitempty"`
	SizeBytes     int64  `json:"size_bytes"`
}

// NewListModels lets the model inspect which models the server has.
func NewListModels(client ModelLister) *tool.Func[struct{}, []ModelSummary] {
	return tool.New("list_models", "Lists the models installed on the inference server.", nil, nil,
		func(ctx context.Context, _ struct{}) ([]ModelSummary, error) {
			models, err := client.ListModels(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]ModelSummary, 0, len(models))
			for _, m := range models {
				out = append(out, ModelSummary{
					Name:          m.Name,
					Family:        m.Details.Family,
					ParameterSize: m.Details.ParameterSize,
					SizeBytes:     m.Size,
				})
			}
			return out, nil
		})
}

// Default builds the registry the CLI offers to models.
func Default(client ModelLister) *tool.Registry {
	reg := tool.NewRegistry(NewRGBToHex(), NewCurrentTime(nil))
	if client != nil {
		reg.Register(NewListModels(client))
	}
	return reg
}
