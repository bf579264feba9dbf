package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"splittab/internal/models"
	"splittab/internal/storage"
)

const systemPrompt = `You are the AI assistant for Expense Splitter, an app for splitting expenses with friends.

You help users:
- Add expenses and split them with group members
- Check balances and who owes whom
- View spending dashboards and summaries
- Settle debts between members
- List and search expenses
- Add members to groups

Rules:
- Be concise and friendly. Use short responses.
- When the user mentions people by name, match them to group members.
- If the user says "I paid" or "I spent", they are the payer.
- If the user doesn't specify participants, split among all group members.
- If the user doesn't specify a category, pick the most appropriate one from the available list.
- If the user has a [SELECTED] group, default to that group when they don't specify one.
- Amounts are in dollars ($).
- After performing an action, confirm what was done concisely.
- If you're unsure which group or member the user means, ask for clarification instead of guessing.
`

// Assistant turns natural-language messages into expense actions via
// Gemini function calling.
type Assistant struct {
	store  storage.Store
	apiKey string
	model  string
}

// NewAssistant creates an assistant backed by the given store and Gemini
// model. An empty API key disables the assistant gracefully.
func NewAssistant(store storage.Store, apiKey, model string) *Assistant {
	return &Assistant{
		store:  store,
		apiKey: apiKey,
		model:  model,
	}
}

// Reply is the assistant's answer to one chat message. Action and Data
// are set when the message triggered an executed action.
type Reply struct {
	Reply  string         `json:"reply"`
	Action string         `json:"action,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Chat answers one user message. groupID, when set, marks the group the
// user currently has open so the model can default to it.
//
// Failures never surface as errors: a missing API key, quota exhaustion
// and model errors all come back as friendly replies, matching the rest
// of the chat surface.
func (a *Assistant) Chat(ctx context.Context, user *models.User, message, groupID string) *Reply {
	if a.apiKey == "" {
		return &Reply{Reply: "AI chat is not configured. The GEMINI_API_KEY environment variable is missing."}
	}

	userContext, err := buildContext(ctx, a.store, user, groupID)
	if err != nil {
		return serviceErrorReply(err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return serviceErrorReply(err)
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = []*genai.Tool{{FunctionDeclarations: declarations()}}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt + "\n\n" + userContext)},
	}
	model.SetTemperature(0.3)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return serviceErrorReply(err)
	}

	part, ok := firstPart(resp)
	if !ok {
		return &Reply{Reply: "I didn't get a response from the AI. Please try again."}
	}

	switch p := part.(type) {
	case genai.FunctionCall:
		return a.runFunctionCall(ctx, session, user, p)
	case genai.Text:
		if text := strings.TrimSpace(string(p)); text != "" {
			return &Reply{Reply: text}
		}
	}
	return &Reply{Reply: "I'm not sure how to help with that. Try asking about expenses, balances, or settlements."}
}

// runFunctionCall executes the model's requested action and feeds the
// outcome back for a final conversational reply. The action summary is
// the fallback reply if the follow-up turn fails.
func (a *Assistant) runFunctionCall(ctx context.Context, session *genai.ChatSession, user *models.User, fc genai.FunctionCall) *Reply {
	result, err := Dispatch(ctx, a.store, user, fc.Name, parseArgs(fc.Args))
	if errors.Is(err, ErrUnknownAction) {
		return &Reply{Reply: fmt.Sprintf("I tried to use an unknown action '%s'. Please try rephrasing.", fc.Name)}
	}
	if err != nil {
		return &Reply{
			Reply:  "Sorry, I couldn't do that: " + err.Error(),
			Action: fc.Name,
			Data:   map[string]any{"error": err.Error()},
		}
	}

	reply := result.Summary
	followup, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": result.Summary},
	})
	if err == nil {
		if text := responseText(followup); text != "" {
			reply = text
		}
	}

	return &Reply{Reply: reply, Action: result.Action, Data: result.Data}
}

// buildContext describes the user and their groups for the system prompt.
func buildContext(ctx context.Context, store storage.Store, user *models.User, groupID string) (string, error) {
	groups, err := store.ListGroupsByMember(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load your groups: %w", err)
	}
	if len(groups) == 0 {
		return fmt.Sprintf("User: %s (id=%s). They have no groups yet.", user.DisplayName(), user.ID), nil
	}

	lines := []string{
		fmt.Sprintf("User: %s (id=%s)", user.DisplayName(), user.ID),
		fmt.Sprintf("Groups (%d):", len(groups)),
	}
	for _, g := range groups {
		members := make([]string, len(g.Members))
		for i, m := range g.Members {
			members[i] = m.DisplayName()
		}
		marker := ""
		if groupID != "" && g.ID == groupID {
			marker = " [SELECTED]"
		}
		lines = append(lines, fmt.Sprintf("  - %s%s: members = [%s]", g.Name, marker, strings.Join(members, ", ")))
	}
	return strings.Join(lines, "\n"), nil
}

// declarations describes the callable actions to the model, one
// declaration per Dispatch action.
func declarations() []*genai.FunctionDeclaration {
	groupName := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}

	return []*genai.FunctionDeclaration{
		{
			Name:        ActionAddExpense,
			Description: "Add a new expense to a group. The current user is the payer unless stated otherwise.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"group_name":  groupName("Name of the group to add the expense to."),
					"amount":      {Type: genai.TypeNumber, Description: "Total expense amount."},
					"description": {Type: genai.TypeString, Description: "Short description of the expense (e.g. 'dinner', 'taxi')."},
					"category": {
						Type:        genai.TypeString,
						Description: "Expense category. Must be one of: " + strings.Join(models.ExpenseCategories, ", ") + ".",
					},
					"participant_names": {
						Type:        genai.TypeArray,
						Items:       &genai.Schema{Type: genai.TypeString},
						Description: "Names or emails of people to split with. Use 'all' to include everyone in the group.",
					},
				},
				Required: []string{"group_name", "amount", "description"},
			},
		},
		{
			Name:        ActionGetBalances,
			Description: "Get who owes whom in a group and suggested settlements.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"group_name": groupName("Name of the group.")},
				Required:   []string{"group_name"},
			},
		},
		{
			Name:        ActionGetDashboard,
			Description: "Get spending statistics and summary for a group: total expenses, category breakdown, per-member spending.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"group_name": groupName("Name of the group.")},
				Required:   []string{"group_name"},
			},
		},
		{
			Name:        ActionSettleDebt,
			Description: "Record a payment to settle a debt with another group member.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"group_name":   groupName("Name of the group."),
					"to_user_name": {Type: genai.TypeString, Description: "Name or email of the person being paid."},
					"amount":       {Type: genai.TypeNumber, Description: "Amount to pay."},
				},
				Required: []string{"group_name", "to_user_name", "amount"},
			},
		},
		{
			Name:        ActionListExpenses,
			Description: "List recent expenses for a group, optionally filtered by search term or category.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"group_name": groupName("Name of the group."),
					"search":     {Type: genai.TypeString, Description: "Optional search term to filter expenses by description."},
					"category":   {Type: genai.TypeString, Description: "Optional category to filter by."},
				},
				Required: []string{"group_name"},
			},
		},
		{
			Name:        ActionAddMember,
			Description: "Add a new member to a group by their email address.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"group_name": groupName("Name of the group."),
					"email":      {Type: genai.TypeString, Description: "Email address of the person to add."},
				},
				Required: []string{"group_name", "email"},
			},
		},
	}
}

// parseArgs decodes the model's loosely-typed call arguments.
func parseArgs(raw map[string]any) Args {
	return Args{
		GroupName:        argString(raw, "group_name"),
		Amount:           argFloat(raw, "amount"),
		Description:      argString(raw, "description"),
		Category:         argString(raw, "category"),
		ParticipantNames: argStrings(raw, "participant_names"),
		ToUserName:       argString(raw, "to_user_name"),
		Email:            argString(raw, "email"),
		Search:           argString(raw, "search"),
	}
}

func argString(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}

func argFloat(raw map[string]any, key string) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func argStrings(raw map[string]any, key string) []string {
	items, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return out
}

// firstPart pulls the leading part out of a model response.
func firstPart(resp *genai.GenerateContentResponse) (genai.Part, bool) {
	if len(resp.Candidates) == 0 {
		return nil, false
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return nil, false
	}
	return content.Parts[0], true
}

// responseText concatenates the text parts of a model response.
func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

// serviceErrorReply phrases a Gemini failure for the user. Quota
// exhaustion gets a softer message since it clears on its own.
func serviceErrorReply(err error) *Reply {
	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "quota") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return &Reply{Reply: "The AI service is temporarily at capacity. Please try again in a minute."}
	}
	return &Reply{Reply: "AI service error: " + msg}
}
