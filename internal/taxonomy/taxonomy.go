// Package taxonomy holds the keyword taxonomy used for rule-based
// question tagging: an ordered tree of subjects, topics, and subtopics,
// each carrying its own keyword set. Declaration order is significant:
// the classifier breaks score ties by first-declared-wins, so the tree
// preserves document order rather than using maps.
package taxonomy

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/examgrid/papers-cli/internal/model"
)

// Subtopic is a leaf label with its keyword set.
type Subtopic struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Topic groups subtopics under a subject and may carry topic-level
// keywords of its own.
type Topic struct {
	Name      string     `yaml:"name"`
	Keywords  []string   `yaml:"keywords"`
	Subtopics []Subtopic `yaml:"subtopics"`
}

// Subject is a top-level taxonomy node.
type Subject struct {
	Name   string  `yaml:"name"`
	Topics []Topic `yaml:"topics"`
}

// Taxonomy is the full validated keyword tree. It is loaded once per run
// and treated as immutable afterwards.
type Taxonomy struct {
	Subjects []Subject `yaml:"subjects"`
}

// Empty reports whether the taxonomy has no subjects. An empty taxonomy
// is legal: rule scoring simply never matches.
func (t *Taxonomy) Empty() bool {
	return t == nil || len(t.Subjects) == 0
}

// AllKeywords returns the effective keyword set for a topic: its own
// keywords plus all of its subtopics' keywords, in declaration order,
// duplicates removed.
func (tp *Topic) AllKeywords() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(kw string) {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
	}
	for _, kw := range tp.Keywords {
		add(kw)
	}
	for _, st := range tp.Subtopics {
		for _, kw := range st.Keywords {
			add(kw)
		}
	}
	return out
}

// Validate checks structural invariants: non-empty names, no duplicate
// subject names, no duplicate topic names within a subject, no duplicate
// subtopic names within a topic, and every topic contributing at least
// one keyword (directly or via a subtopic).
func (t *Taxonomy) Validate() error {
	subjectNames := make(map[string]bool)
	for _, subj := range t.Subjects {
		name := model.NormalizeSpace(subj.Name)
		if name == "" {
			return eris.New("taxonomy: subject with empty name")
		}
		key := strings.ToLower(name)
		if subjectNames[key] {
			return eris.Errorf("taxonomy: duplicate subject %q", subj.Name)
		}
		subjectNames[key] = true

		topicNames := make(map[string]bool)
		for _, topic := range subj.Topics {
			tname := model.NormalizeSpace(topic.Name)
			if tname == "" {
				return eris.Errorf("taxonomy: subject %q has a topic with empty name", subj.Name)
			}
			tkey := strings.ToLower(tname)
			if topicNames[tkey] {
				return eris.Errorf("taxonomy: duplicate topic %q under subject %q", topic.Name, subj.Name)
			}
			topicNames[tkey] = true

			if len(topic.AllKeywords()) == 0 {
				return eris.Errorf("taxonomy: topic %q has no keywords", topic.Name)
			}

			subtopicNames := make(map[string]bool)
			for _, st := range topic.Subtopics {
				sname := model.NormalizeSpace(st.Name)
				if sname == "" {
					return eris.Errorf("taxonomy: topic %q has a subtopic with empty name", topic.Name)
				}
				skey := strings.ToLower(sname)
				if subtopicNames[skey] {
					return eris.Errorf("taxonomy: duplicate subtopic %q under topic %q", st.Name, topic.Name)
				}
				subtopicNames[skey] = true
			}
		}
	}
	return nil
}

// Counts returns the number of subjects, topics, subtopics, and distinct
// keywords for summary logging.
func (t *Taxonomy) Counts() (subjects, topics, subtopics, keywords int) {
	kwSet := make(map[string]bool)
	for _, subj := range t.Subjects {
		subjects++
		for _, topic := range subj.Topics {
			topics++
			subtopics += len(topic.Subtopics)
			for _, kw := range topic.AllKeywords() {
				kwSet[kw] = true
			}
		}
	}
	return subjects, topics, subtopics, len(kwSet)
}
