package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/alignment"
	"github.com/spigell/collab-matcher/internal/client"
	"github.com/spigell/collab-matcher/internal/feed"
	"github.com/spigell/collab-matcher/internal/logger"
	"github.com/spigell/collab-matcher/internal/projects"
	"github.com/spigell/collab-matcher/internal/secrets"
)

const (
	PromptBrowse        = "Browse the feed"
	PromptSort          = "Change sort"
	PromptFilters       = "Change filters"
	PromptHideOwn       = "Toggle hiding my projects"
	PromptMeetups       = "My meetups"
	PromptReportByStage = "Report by stage"
	PromptFeedToFile    = "Dump feed to file"
	PromptExit          = "Exit"

	PromptBack          = "back"
	PromptDone          = "done"
	PromptRequestMeetup = "Request a meetup"
	PromptRetry         = "Retry alignment"
	PromptHide          = "Hide this project"
)

var errExit = errors.New("exit requested")

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the project feed interactively",
	Run: func(_ *cobra.Command, _ []string) {
		browse()
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().String("api-url", "", "collab-matcher API url")
	browseCmd.Flags().StringP("token-file", "t", "", "file with the bearer token")

	viper.BindPFlag("client.api-url", browseCmd.Flags().Lookup("api-url"))
	viper.BindPFlag("client.token-file", browseCmd.Flags().Lookup("token-file"))
}

// fileTokens re-reads the token file on refresh so a freshly issued token is
// picked up without restarting the session.
type fileTokens struct {
	path string
}

func (f fileTokens) Token(context.Context) (string, error) {
	return secrets.Load(secrets.Source{Name: "api token", File: f.path, Env: "COLLAB_TOKEN"})
}

func (f fileTokens) Refresh(ctx context.Context) (string, error) {
	return f.Token(ctx)
}

type session struct {
	api     *client.Client
	tracker *alignment.Tracker
	logger  *zap.Logger
	sort    feed.SortMode
	filters []string
	hideOwn bool
	hidden  []string
	items   []*projects.Project
}

func browse() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	api := client.New(config.Client.APIURL, fileTokens{path: config.Client.TokenFile}, logger)

	me, err := api.Me(ctx)
	if err != nil {
		logger.Fatal("signing in",
			zap.Error(err),
			zap.String("hint", "issue a token with 'collab-matcher token' and pass it with --token-file or COLLAB_TOKEN"),
		)
	}
	logger.Info("signed in", zap.String("uid", me.UID), zap.String("email", me.Email))

	s := &session{
		api:     api,
		tracker: alignment.NewTracker(),
		logger:  logger,
		sort:    feed.SortMatch,
	}

	menu := promptui.Select{
		Label: "What next?",
		Items: []string{PromptBrowse, PromptSort, PromptFilters, PromptHideOwn, PromptMeetups, PromptReportByStage, PromptFeedToFile, PromptExit},
	}

	for {
		_, action, err := menu.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := s.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func (s *session) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptBrowse:
		return s.browseFeed(ctx)
	case PromptSort:
		return s.chooseSort()
	case PromptFilters:
		return s.chooseFilters()
	case PromptHideOwn:
		s.hideOwn = !s.hideOwn
		s.logger.Info("hiding my projects", zap.Bool("enabled", s.hideOwn))
		return nil
	case PromptMeetups:
		return s.listMeetups(ctx)
	case PromptReportByStage:
		if err := s.refresh(ctx); err != nil {
			return err
		}
		pretty, _ := json.MarshalIndent((&projects.Projects{Items: s.items}).ReportByStage(), "", "  ")
		s.logger.Info(string(pretty), zap.Int("projects count", len(s.items)))
		return nil
	case PromptFeedToFile:
		if err := s.refresh(ctx); err != nil {
			return err
		}
		filename, err := (&projects.Projects{Items: s.items}).DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump feed to file: %w", err)
		}
		s.logger.Info("dumping feed to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) refresh(ctx context.Context) error {
	page, err := s.api.Projects(ctx, client.FeedQuery{
		Sort:    string(s.sort),
		Filters: s.filters,
		HideOwn: s.hideOwn,
		Hidden:  s.hidden,
	})
	if err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}
	s.items = page.Projects

	for _, st := range page.Filters {
		s.logger.Debug("filter",
			zap.String("name", st.Name),
			zap.Bool("enabled", st.Enabled),
			zap.String("reason", st.Reason),
			zap.Any("details", st.Details),
		)
	}
	s.logger.Info("current feed",
		zap.Int("count", len(page.Projects)),
		zap.String("sort", string(s.sort)),
		zap.Strings("filters", s.filters),
		zap.Strings("ignored filters", page.Ignored),
	)
	return nil
}

func (s *session) browseFeed(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}

	for {
		items := make([]string, 0, len(s.items)+1)
		for _, p := range s.items {
			stage := p.Stage
			if stage == "" {
				stage = "-"
			}
			items = append(items, fmt.Sprintf("%s %s / %s / %d%% match / needs %s",
				p.ID, p.Title, stage, p.CompatibilityScore, strings.Join(p.MissingRoles, ", "),
			))
		}

		projectPrompt := promptui.Select{
			Label: "Choose a project and press ENTER",
			Items: append(items, PromptBack),
			Size:  10,
		}

		_, selected, err := projectPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		id := strings.Split(selected, " ")[0]
		project := (&projects.Projects{Items: s.items}).FindByID(id)
		if project == nil {
			return fmt.Errorf("there is no such project id %s", id)
		}

		hidden, err := s.showProject(ctx, project)
		if err != nil {
			return err
		}
		if hidden {
			if err := s.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

// showProject reports true when the viewer hid the project.
func (s *session) showProject(ctx context.Context, p *projects.Project) (bool, error) {
	s.logger.Info(p.Title,
		zap.String("pitch", p.ElevatorPitch),
		zap.String("owner", p.Owner.Name),
		zap.Strings("tags", p.Tags),
		zap.Strings("missing roles", p.MissingRoles),
		zap.String("stage", p.Stage),
		zap.Int("team", p.TeamSize),
		zap.Int("max team", p.MaxTeamSize),
		zap.Time("created", p.CreatedAt()),
	)

	s.fetchAlignment(ctx, p.ID)

	for {
		res := s.tracker.Result(p.ID)
		actions := []string{PromptRequestMeetup}
		if res.Err != nil && alignment.Retryable(res.Err) {
			actions = append(actions, PromptRetry)
		}
		actions = append(actions, PromptHide, PromptBack)

		_, action, err := (&promptui.Select{Label: p.Title, Items: actions}).Run()
		if err != nil {
			return false, err
		}

		switch action {
		case PromptRequestMeetup:
			if err := s.requestMeetup(ctx, p); err != nil {
				s.logger.Error("requesting a meetup", zap.Error(err))
			}
		case PromptRetry:
			s.fetchAlignment(ctx, p.ID)
		case PromptHide:
			s.hidden = append(s.hidden, p.ID)
			return true, nil
		case PromptBack:
			return false, nil
		}
	}
}

func (s *session) fetchAlignment(ctx context.Context, projectID string) {
	s.logger.Info("analyzing project alignment...")

	res, issued := s.tracker.Fetch(ctx, projectID, s.api.Alignment)
	if !issued {
		return
	}

	switch {
	case res.Err == nil:
		s.logger.Info("alignment", zap.String("text", res.Text))
	case errors.Is(res.Err, alignment.ErrUnauthorized):
		s.logger.Warn("session expired",
			zap.String("hint", "issue a new token with 'collab-matcher token' and retry"),
		)
	case errors.Is(res.Err, alignment.ErrConfiguration):
		s.logger.Warn("alignment is not configured on the server",
			zap.String("hint", "the server needs GEMINI_API_KEY or OPENAI_API_KEY"),
		)
	case errors.Is(res.Err, client.ErrUnexpectedFormat):
		s.logger.Error("server error: unable to connect to alignment service", zap.Error(res.Err))
	default:
		s.logger.Warn("alignment unavailable", zap.String("reason", serverMessage(res.Err)))
	}
}

func serverMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return alignment.Message(err)
}

func (s *session) requestMeetup(ctx context.Context, p *projects.Project) error {
	spotPrompt := promptui.Prompt{
		Label:   "Campus spot",
		Default: projects.DefaultCampusSpot,
	}
	spot, err := spotPrompt.Run()
	if err != nil {
		return err
	}

	meetup, err := s.api.RequestMeetup(ctx, p.ID, spot, time.Time{})
	if err != nil {
		return errors.New(serverMessage(err))
	}

	s.logger.Info("meetup requested",
		zap.String("project", meetup.ProjectName),
		zap.String("with", meetup.RecipientName),
		zap.String("spot", meetup.CampusSpot),
	)
	return nil
}

func (s *session) chooseSort() error {
	modes := make([]string, 0, len(feed.SortModes))
	for _, m := range feed.SortModes {
		modes = append(modes, string(m))
	}

	_, selected, err := (&promptui.Select{Label: "Sort by", Items: modes}).Run()
	if err != nil {
		return err
	}

	mode, err := feed.ParseSortMode(selected)
	if err != nil {
		return err
	}
	s.sort = mode
	return nil
}

// chooseFilters toggles tags until "done" is chosen.
func (s *session) chooseFilters() error {
	for {
		tags := feed.KnownTags()
		items := make([]string, 0, len(tags)+1)
		for _, tag := range tags {
			mark := "[ ]"
			if slices.Contains(s.filters, tag) {
				mark = "[x]"
			}
			items = append(items, mark+" "+tag)
		}

		_, selected, err := (&promptui.Select{Label: "Toggle filters", Items: append(items, PromptDone), Size: len(items) + 1}).Run()
		if err != nil {
			return err
		}
		if selected == PromptDone {
			return nil
		}

		tag := strings.TrimSpace(selected[len("[ ]"):])
		if i := slices.Index(s.filters, tag); i >= 0 {
			s.filters = slices.Delete(s.filters, i, i+1)
		} else {
			s.filters = append(s.filters, tag)
		}
	}
}

func (s *session) listMeetups(ctx context.Context) error {
	list, err := s.api.Meetups(ctx)
	if err != nil {
		return fmt.Errorf("loading meetups: %w", err)
	}

	for _, status := range []string{projects.MeetupPending, projects.MeetupCompleted} {
		for _, m := range list.ByStatus(status) {
			s.logger.Info(m.ProjectName,
				zap.String("status", m.Status),
				zap.String("from", m.ProposerName),
				zap.String("to", m.RecipientName),
				zap.String("spot", m.CampusSpot),
				zap.Time("at", m.ProposedTime),
			)
		}
	}
	s.logger.Info("meetups", zap.Int("count", list.Len()))
	return nil
}
