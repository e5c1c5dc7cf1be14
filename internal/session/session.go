// Package session runs one operator session: the login loop, the main
// menu and logout.  A session owns exactly one database handle, opened at
// login and closed at logout.
package session

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/displaydb/internal/console"
	"github.com/iliyamo/displaydb/internal/database"
	"github.com/iliyamo/displaydb/internal/handler"
	"github.com/iliyamo/displaydb/internal/service"
)

// Connector opens the session database.
type Connector interface {
	Connect(ctx context.Context, cr database.Credentials) (*sql.DB, error)
}

// State is the lifecycle position of a session.
type State int

const (
	Authenticating State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Active:
		return "active"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

const optionLogout = 6

var errCleared = errors.New("login parameters cleared")

// Options configures a Session.  Connector, Prompter and Printer are
// required.
type Options struct {
	Connector Connector
	Prompter  console.Prompter
	Printer   *console.Printer
	Logger    *zap.Logger

	// Defaults fill host, database and user when the answer is blank.
	Defaults database.Credentials

	// Inventory builds the inventory service over the session database.
	// Nil uses service.NewInventory without options.
	Inventory func(db *sql.DB) *service.Inventory
}

// Session is a single login-to-logout run.
type Session struct {
	conn      Connector
	in        console.Prompter
	out       *console.Printer
	log       *zap.Logger
	defaults  database.Credentials
	inventory func(*sql.DB) *service.Inventory
	state     State
}

func New(o Options) *Session {
	s := &Session{
		conn:      o.Connector,
		in:        o.Prompter,
		out:       o.Printer,
		log:       o.Logger,
		defaults:  o.Defaults,
		inventory: o.Inventory,
		state:     Authenticating,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.inventory == nil {
		s.inventory = func(db *sql.DB) *service.Inventory {
			return service.NewInventory(db, service.WithLogger(s.log))
		}
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Run logs in, serves the menu until logout and closes the connection.
// Input ending or ctx being cancelled counts as logout and is not an
// error.
func (s *Session) Run(ctx context.Context) error {
	db, err := s.login(ctx)
	if err != nil {
		s.state = Terminated
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		return err
	}
	s.state = Active

	err = s.menu(ctx, db)
	s.logout(db)
	if errors.Is(err, io.EOF) || ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Session) login(ctx context.Context) (*sql.DB, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.out.Println("Welcome! Please login to the database.")
		cr, err := s.readCredentials()
		if errors.Is(err, errCleared) {
			s.out.Println("All parameters have been cleared. Please re-enter your login details.")
			continue
		}
		if err != nil {
			return nil, err
		}

		db, err := s.conn.Connect(ctx, cr)
		if err == nil {
			s.log.Info("login succeeded",
				zap.String("host", cr.Host),
				zap.String("database", cr.Name),
				zap.String("user", cr.User))
			s.out.Success("Connected to the database successfully!")
			return db, nil
		}
		s.log.Warn("login failed",
			zap.String("host", cr.Host),
			zap.String("database", cr.Name),
			zap.String("user", cr.User),
			zap.Error(err))
		s.out.Error("Connection failed: " + err.Error())
		s.out.Println("Failed to connect. Type 'clear' to reset parameters or try again.")
	}
}

// readCredentials collects the four login fields.  It returns errCleared
// as soon as any answer is "clear".
func (s *Session) readCredentials() (database.Credentials, error) {
	var cr database.Credentials
	var err error
	if cr.Host, err = s.field("Enter host (or type 'clear' to reset all parameters): ", s.defaults.Host); err != nil {
		return cr, err
	}
	if cr.Name, err = s.field("Enter database name (or type 'clear' to reset all parameters): ", s.defaults.Name); err != nil {
		return cr, err
	}
	if cr.User, err = s.field("Enter username (or type 'clear' to reset all parameters): ", s.defaults.User); err != nil {
		return cr, err
	}
	pw, err := s.in.ReadPassword("Enter password (or type 'clear' to reset all parameters): ")
	if err != nil {
		return cr, err
	}
	if isClear(pw) {
		return cr, errCleared
	}
	cr.Password = pw
	return cr, nil
}

func (s *Session) field(prompt, def string) (string, error) {
	v, err := s.in.ReadLine(prompt)
	if err != nil {
		return "", err
	}
	if isClear(v) {
		return "", errCleared
	}
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return v, nil
}

func isClear(v string) bool { return strings.EqualFold(strings.TrimSpace(v), "clear") }

func (s *Session) menu(ctx context.Context, db *sql.DB) error {
	h := handler.NewInventoryHandler(s.inventory(db), s.in, s.out, s.log)
	actions := map[int]func(context.Context) error{
		1: h.ListAll,
		2: h.Search,
		3: h.Insert,
		4: h.Delete,
		5: h.Update,
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printMenu()
		answer, err := s.in.ReadLine("Choose an option: ")
		if err != nil {
			s.out.Println()
			s.out.Println("Logging out...")
			return err
		}
		choice, err := strconv.Atoi(strings.TrimSpace(answer))
		if err == nil && choice == optionLogout {
			s.out.Println("Logging out...")
			return nil
		}
		action, ok := actions[choice]
		if err != nil || !ok {
			s.out.Error("Invalid option. Please try again.")
			continue
		}
		if err := action(ctx); err != nil {
			return err
		}
	}
}

func (s *Session) printMenu() {
	s.out.Heading("Main Menu:")
	s.out.Println("1. Display all digital displays")
	s.out.Println("2. Search digital displays by scheduler system")
	s.out.Println("3. Insert a new digital display")
	s.out.Println("4. Delete a digital display")
	s.out.Println("5. Update a digital display")
	s.out.Println("6. Logout")
}

func (s *Session) logout(db *sql.DB) {
	s.state = Terminated
	if err := db.Close(); err != nil {
		s.log.Warn("close connection failed", zap.Error(err))
		s.out.Error("Error closing the connection: " + err.Error())
		return
	}
	s.out.Println("Disconnected from the database.")
}
