package main

import (
	"context"
	"github.com/labqa/inspection/internal/contexthelpers"
	"github.com/labqa/inspection/internal/flatten"
	"github.com/labqa/inspection/internal/form"
	"github.com/labqa/inspection/internal/schema"
	"github.com/labqa/inspection/internal/wizard"
	"net/http"
	"slices"
	"strconv"
)

type BaseTemplateData struct {
	CurrentPath string
	Step        string
}

func newBaseTemplateData(r *http.Request, s *wizard.Session) BaseTemplateData {
	return BaseTemplateData{
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
		Step:        s.Step.String(),
	}
}

type optionView struct {
	Value    string
	Selected bool
}

type sectorView struct {
	Name      string
	Selected  bool
	Processes []optionView
}

type cellView struct {
	Column string
	Value  string
}

func (app *application) sectorViews(sectorName string, processName string) []sectorView {
	sectors := app.engine.Schema().Sectors
	views := make([]sectorView, len(sectors))
	for i := range sectors {
		selected := sectors[i].Name == sectorName
		views[i] = sectorView{
			Name:      sectors[i].Name,
			Selected:  selected,
			Processes: make([]optionView, 0, len(sectors[i].Processes)),
		}
		for _, name := range sectors[i].ProcessNames() {
			views[i].Processes = append(views[i].Processes, optionView{
				Value:    name,
				Selected: selected && name == processName,
			})
		}
	}
	return views
}

type initialFieldView struct {
	Key       string
	Label     string
	InputType string
	Value     string
	Required  bool
}

type basicInfoTemplateData struct {
	BaseTemplateData
	Fields  []initialFieldView
	Sectors []sectorView
	Missing []string
}

func (app *application) basicInfoData(r *http.Request, s *wizard.Session) basicInfoTemplateData {
	initial := app.engine.Schema().InitialFields
	fields := make([]initialFieldView, len(initial))
	for i, f := range initial {
		fields[i] = initialFieldView{
			Key:       f.Key,
			Label:     f.Label,
			InputType: "text",
			Value:     s.Record.BasicInfo[f.Key],
			Required:  f.Required,
		}
		switch f.Type {
		case schema.InitialPassword:
			fields[i].InputType = "password"
			fields[i].Value = ""
		case schema.InitialDate:
			fields[i].InputType = "date"
		case schema.InitialText:
		}
	}
	return basicInfoTemplateData{
		BaseTemplateData: newBaseTemplateData(r, s),
		Fields:           fields,
		Sectors:          app.sectorViews(s.Record.SectorName, s.Record.ProcessName),
		Missing:          s.Missing,
	}
}

type selectionTemplateData struct {
	BaseTemplateData
	Summary []cellView
	Sectors []sectorView
	Missing []string
}

func (app *application) selectionData(r *http.Request, s *wizard.Session) selectionTemplateData {
	var summary []cellView
	for _, f := range app.engine.Schema().InitialFields {
		if f.Type == schema.InitialPassword || s.Record.BasicInfo[f.Key] == "" {
			continue
		}
		summary = append(summary, cellView{Column: f.Label, Value: s.Record.BasicInfo[f.Key]})
	}
	return selectionTemplateData{
		BaseTemplateData: newBaseTemplateData(r, s),
		Summary:          summary,
		Sectors:          app.sectorViews(s.Record.SectorName, s.Record.ProcessName),
		Missing:          s.Missing,
	}
}

type liveView struct {
	PrepKey          string
	PrepLabel        string
	PrepRequired     bool
	PrepDate         string
	CategoryKey      string
	CategoryLabel    string
	CategoryRequired bool
	Categories       []optionView
}

type fieldView struct {
	Key      string
	Label    string
	Type     string
	Required bool
	Value    string
	Step     string
	Options  []optionView
	Files    []string
	Computed bool
}

type processFormTemplateData struct {
	BaseTemplateData
	SectorName  string
	ProcessName string
	Live        *liveView
	Fields      []fieldView
	Missing     []string
}

func (app *application) processFormData(r *http.Request, s *wizard.Session) processFormTemplateData {
	data := processFormTemplateData{
		BaseTemplateData: newBaseTemplateData(r, s),
		SectorName:       s.Record.SectorName,
		ProcessName:      s.Record.ProcessName,
		Live:             nil,
		Fields:           nil,
		Missing:          s.Missing,
	}
	_, process, ok := app.engine.Current(s)
	if !ok {
		return data
	}
	if process.IsSolutions() {
		data.Live = newLiveView(process, s.Live)
	}
	for _, f := range app.engine.VisibleFields(r.Context(), s) {
		view := fieldView{
			Key:      f.Key,
			Label:    f.Label,
			Type:     f.Type.String(),
			Required: f.Required,
			Value:    "",
			Step:     strconv.FormatFloat(f.Step, 'f', -1, 64),
			Options:  nil,
			Files:    form.Names(s.Record.Answers.AttachmentsOf(f.Label)),
			Computed: process.IsComputedExpiry(f),
		}
		if view.Computed {
			view.Value = app.engine.Expiry(s)
			data.Fields = append(data.Fields, view)
			continue
		}
		v, _ := s.Record.Answers.Get(f.Label)
		view.Value = v.String()
		for _, option := range f.Options {
			view.Options = append(view.Options, optionView{Value: option, Selected: v.Contains(option)})
		}
		data.Fields = append(data.Fields, view)
	}
	return data
}

func newLiveView(process *schema.Process, live form.LiveFields) *liveView {
	view := &liveView{
		PrepKey:          schema.KeyPreparationDate,
		PrepLabel:        schema.KeyPreparationDate,
		PrepRequired:     false,
		PrepDate:         live.PreparationDate,
		CategoryKey:      schema.KeyCategory,
		CategoryLabel:    schema.KeyCategory,
		CategoryRequired: false,
		Categories:       nil,
	}
	if f, ok := process.FieldByKey(schema.KeyPreparationDate); ok {
		view.PrepLabel, view.PrepRequired = f.Label, f.Required
	}
	if f, ok := process.FieldByKey(schema.KeyCategory); ok {
		view.CategoryLabel, view.CategoryRequired = f.Label, f.Required
		for _, option := range f.Options {
			view.Categories = append(view.Categories, optionView{Value: option, Selected: option == live.Category})
		}
	}
	return view
}

type attachmentView struct {
	Label string
	Name  string
	ID    string
}

type completionTemplateData struct {
	BaseTemplateData
	Cells       []cellView
	Attachments []attachmentView
	Warnings    []string
}

func (app *application) completionData(r *http.Request, s *wizard.Session) completionTemplateData {
	data := completionTemplateData{
		BaseTemplateData: newBaseTemplateData(r, s),
		Cells:            nil,
		Attachments:      nil,
		Warnings:         s.Warnings,
	}
	if s.Last == nil {
		return data
	}
	row := flatten.Flatten(*s.Last)
	for _, column := range row.Columns {
		data.Cells = append(data.Cells, cellView{Column: column, Value: row.Values[column]})
	}
	labels := make([]string, 0, len(s.Last.Answers.Attachments))
	for label := range s.Last.Answers.Attachments {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, label := range labels {
		for _, file := range s.Last.Answers.AttachmentsOf(label) {
			if file.Pending() {
				continue
			}
			data.Attachments = append(data.Attachments, attachmentView{Label: label, Name: file.Name, ID: file.StorageID})
		}
	}
	return data
}

type historyTemplateData struct {
	BaseTemplateData
	Table  flatten.Table
	Stored int
}

func (app *application) historyData(ctx context.Context, r *http.Request, s *wizard.Session) (historyTemplateData,
	error) {
	stored, err := app.inspections.CountRecords(ctx)
	if err != nil {
		return historyTemplateData{}, err
	}
	return historyTemplateData{
		BaseTemplateData: newBaseTemplateData(r, s),
		Table:            flatten.Union(s.HistoryRows()),
		Stored:           stored,
	}, nil
}
