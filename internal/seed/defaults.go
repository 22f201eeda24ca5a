package seed

import "github.com/alfredjeanlab/confvault/internal/model"

// Ids of the default entities.
const (
	ChatModelID      = "default-chat"
	EmbeddingModelID = "default-embedding"
	WorkflowID       = "research-write-review"
)

// Set is a group of entities saved together by Bootstrap.
type Set struct {
	Models    []*model.Model
	Tools     []*model.Tool
	Prompts   []*model.Prompt
	Agents    []*model.Agent
	Workflows []*model.Workflow
}

// Entities returns the set in save order: everything an agent or workflow
// refers to comes before it.
func (s Set) Entities() []model.Entity {
	var out []model.Entity
	for _, m := range s.Models {
		out = append(out, m)
	}
	for _, t := range s.Tools {
		out = append(out, t)
	}
	for _, p := range s.Prompts {
		out = append(out, p)
	}
	for _, a := range s.Agents {
		out = append(out, a)
	}
	for _, w := range s.Workflows {
		out = append(out, w)
	}
	return out
}

// Defaults returns a fresh copy of the built-in configuration.
func Defaults() Set {
	return Set{
		Models: []*model.Model{
			{
				Meta:     model.Meta{ID: ChatModelID},
				Name:     "Default chat model",
				Provider: "openai",
				Type:     model.ModelTypeLLM,
				Status:   model.ModelStatusActive,
				Config:   map[string]any{"model": "gpt-4o", "max_tokens": 4096},
			},
			{
				Meta:     model.Meta{ID: EmbeddingModelID},
				Name:     "Default embedding model",
				Provider: "openai",
				Type:     model.ModelTypeEmbedding,
				Status:   model.ModelStatusActive,
				Config:   map[string]any{"model": "text-embedding-3-small", "dimensions": 1536},
			},
		},
		Tools: []*model.Tool{
			{
				Meta:        model.Meta{ID: "web_search"},
				Name:        "Web search",
				Description: "Search the web and return the top results",
				Enabled:     true,
				Provider:    "builtin",
				Config:      map[string]any{"max_results": 5},
			},
			{
				Meta:        model.Meta{ID: "file_reader"},
				Name:        "File reader",
				Description: "Read a text file from the workspace",
				Enabled:     true,
				Provider:    "builtin",
			},
			{
				Meta:        model.Meta{ID: "code_executor"},
				Name:        "Code executor",
				Description: "Run a code snippet in a sandbox",
				Enabled:     false,
				Provider:    "builtin",
				Config:      map[string]any{"timeout": "30s", "language": "python"},
			},
		},
		Prompts: []*model.Prompt{
			{
				Meta:      model.Meta{ID: "system"},
				Name:      "System",
				Template:  "You are {role}. {goal}",
				Variables: []string{"role", "goal"},
				Category:  "system",
			},
			{
				Meta:      model.Meta{ID: "summarize"},
				Name:      "Summarize",
				Template:  "Summarize the following text in at most {max_words} words:\n\n{text}",
				Variables: []string{"max_words", "text"},
				Category:  "writing",
			},
			{
				Meta:      model.Meta{ID: "review"},
				Name:      "Review",
				Template:  "Review the draft below against these criteria: {criteria}\n\n{draft}",
				Variables: []string{"criteria", "draft"},
				Category:  "review",
			},
		},
		Agents: []*model.Agent{
			{
				Meta:          model.Meta{ID: "researcher"},
				Name:          "Researcher",
				Role:          "Research analyst",
				Goal:          "Find accurate, well-sourced information on the topic",
				Model:         ChatModelID,
				MaxIterations: 10,
				Temperature:   0.3,
				Tools:         []string{"web_search", "file_reader"},
			},
			{
				Meta:          model.Meta{ID: "writer"},
				Name:          "Writer",
				Role:          "Technical writer",
				Goal:          "Turn research notes into a clear draft",
				Model:         ChatModelID,
				MaxIterations: 5,
				Temperature:   0.7,
			},
			{
				Meta:            model.Meta{ID: "reviewer"},
				Name:            "Reviewer",
				Role:            "Editor",
				Goal:            "Check drafts for accuracy and clarity",
				Model:           ChatModelID,
				MaxIterations:   3,
				Temperature:     0.2,
				AllowDelegation: true,
			},
		},
		Workflows: []*model.Workflow{
			{
				Meta:        model.Meta{ID: WorkflowID},
				Name:        "Research, write, review",
				Description: "Research a topic, draft a report and review it",
				Steps: []model.Step{
					{Name: "research", Type: model.StepAgent, Agent: &model.AgentStep{
						AgentID: "researcher", Task: "Research the topic", ExpectedOutput: "research notes",
					}},
					{Name: "write", Type: model.StepAgent, Agent: &model.AgentStep{
						AgentID: "writer", Task: "Write a draft from the research notes", ExpectedOutput: "draft",
					}},
					{Name: "review", Type: model.StepAgent, Agent: &model.AgentStep{
						AgentID: "reviewer", Task: "Review the draft", ExpectedOutput: "final report",
					}},
				},
				Settings: model.WorkflowSettings{Timeout: "30m", StopOnError: true},
			},
		},
	}
}
