package configs

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/classboard/classboard/api/respond"
)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedLabelKeys(m map[string]map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// menuNode is one entry of the admin navigation tree.
type menuNode struct {
	To       string     `json:"to,omitempty"`
	Text     string     `json:"text"`
	Key      string     `json:"key,omitempty"`
	Raw      string     `json:"raw,omitempty"`
	Children []menuNode `json:"children"`
}

// getMenu builds the navigation tree: fixed entries followed by one subtree
// per configured institution.
func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	menu := []menuNode{
		{To: "/", Text: "总览", Key: "go-back-home"},
		{To: "/autorun", Text: "自动任务", Key: "autorun"},
	}
	insts, err := h.cfg.Institutions(ctx)
	if err != nil {
		respond.Error(w, err)
		return
	}
	for _, inst := range insts {
		instNode := menuNode{
			Text: fmt.Sprintf("%s 学校", inst),
			Key:  "school-" + inst,
			Raw:  inst,
		}
		grades, err := h.cfg.Grades(ctx, inst)
		if err != nil {
			respond.Error(w, err)
			return
		}
		for _, grade := range grades {
			gradeKey := fmt.Sprintf("school-%s-grade-%s", inst, grade)
			gradeNode := menuNode{
				Text: fmt.Sprintf("%s 级", grade),
				Key:  gradeKey,
				Raw:  grade,
				Children: []menuNode{
					{To: fmt.Sprintf("/config/%s/%s/subjects", inst, grade), Text: "课程设置", Key: gradeKey + "-subjects"},
					{To: fmt.Sprintf("/config/%s/%s/timetable", inst, grade), Text: "作息设置", Key: gradeKey + "-timetable"},
				},
			}
			classes, err := h.cfg.Classes(ctx, inst, grade)
			if err != nil {
				respond.Error(w, err)
				return
			}
			for _, class := range classes {
				classKey := fmt.Sprintf("%s-class-%s", gradeKey, class)
				gradeNode.Children = append(gradeNode.Children, menuNode{
					Text: fmt.Sprintf("%s 班", class),
					Key:  classKey,
					Raw:  class,
					Children: []menuNode{
						{To: fmt.Sprintf("/config/%s/%s/%s/schedule", inst, grade, class), Text: "课表设置", Key: classKey + "-schedule"},
						{To: fmt.Sprintf("/config/%s/%s/%s/settings", inst, grade, class), Text: "通用设置", Key: classKey + "-settings"},
					},
				})
			}
			instNode.Children = append(instNode.Children, gradeNode)
		}
		menu = append(menu, instNode)
	}
	respond.OK(w, map[string]any{"data": menu})
}

// structureNode is the bare institution tree without navigation targets.
type structureNode struct {
	Text     string          `json:"text"`
	Children []structureNode `json:"children"`
}

func (h *Handler) getStructure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	insts, err := h.cfg.Institutions(ctx)
	if err != nil {
		respond.Error(w, err)
		return
	}
	out := make([]structureNode, 0, len(insts))
	for _, inst := range insts {
		instNode := structureNode{Text: inst}
		grades, err := h.cfg.Grades(ctx, inst)
		if err != nil {
			respond.Error(w, err)
			return
		}
		for _, grade := range grades {
			gradeNode := structureNode{Text: grade}
			classes, err := h.cfg.Classes(ctx, inst, grade)
			if err != nil {
				respond.Error(w, err)
				return
			}
			for _, class := range classes {
				gradeNode.Children = append(gradeNode.Children, structureNode{Text: class})
			}
			instNode.Children = append(instNode.Children, gradeNode)
		}
		out = append(out, instNode)
	}
	respond.OK(w, out)
}
