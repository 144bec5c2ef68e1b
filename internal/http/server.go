package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"edutech-backend-go/internal/config"
	"edutech-backend-go/internal/logger"
	"edutech-backend-go/internal/services"
)

type Server struct {
	DB       *sqlx.DB
	Config   config.Config
	Log      *logger.Logger
	Tokens   services.TokenService
	Revoker  services.Revoker
	Validate *validator.Validate

	Users     *services.UserService
	Exercises *services.ExerciseService
	Lists     *services.ListService
	Turmas    *services.TurmaService
	Maps      *services.MapService
	Answers   *services.AnswerService
	Reports   *services.ReportService
}

func NewServer(db *sqlx.DB, cfg config.Config, log *logger.Logger, revoker services.Revoker) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		TTL:        time.Duration(cfg.SessionTTLSeconds) * time.Second,
		BcryptCost: cfg.BcryptCost,
	}
	if revoker == nil {
		revoker = services.NoopRevoker{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		DB:        db,
		Config:    cfg,
		Log:       log,
		Tokens:    tokens,
		Revoker:   revoker,
		Validate:  newValidator(),
		Users:     &services.UserService{DB: db, Tokens: tokens},
		Exercises: &services.ExerciseService{DB: db},
		Lists:     &services.ListService{DB: db},
		Turmas:    &services.TurmaService{DB: db},
		Maps:      &services.MapService{DB: db},
		Answers:   &services.AnswerService{DB: db},
		Reports:   &services.ReportService{DB: db},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.Log))
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	auth := WithAuth(s.Tokens, s.Revoker)
	readContent := RequirePermission(services.OpReadContent)
	manageContent := RequirePermission(services.OpManageContent)
	reports := RequirePermission(services.OpViewReports)

	r.Get("/health", s.Health)
	r.Get("/ws/status", s.StatusSocket)

	r.Route("/usuarios", func(users chi.Router) {
		users.Post("/cadastro", s.Register)
		users.Post("/login", s.Login)
		users.Group(func(me chi.Router) {
			me.Use(auth)
			me.Post("/logout", s.Logout)
			me.Get("/perfil", s.Profile)
			me.Put("/perfil", s.UpdateProfile)
			me.Put("/perfil/senha", s.ChangePassword)
			me.With(RequirePermission(services.OpManageUsers)).Get("/", s.ListUsers)
			me.With(RequirePermission(services.OpManageUsers)).Delete("/{id}", s.DeleteUser)
		})
	})

	r.Route("/exercicios", func(ex chi.Router) {
		ex.Use(auth)
		ex.With(readContent).Get("/", s.ListExercises)
		ex.With(readContent).Get("/{id}", s.GetExercise)
		ex.With(readContent).Get("/turma/{id}", s.ExercisesByTurma)
		ex.With(manageContent).Post("/", s.CreateExercise)
		ex.With(manageContent).Put("/{id}", s.UpdateExercise)
		ex.With(manageContent).Delete("/{id}", s.DeleteExercise)
	})

	r.Route("/listas", func(lists chi.Router) {
		lists.Use(auth)
		lists.With(readContent).Get("/", s.ListLists)
		lists.With(readContent).Get("/{id}", s.GetList)
		lists.With(readContent).Get("/{id}/exercicios", s.ListExercisesOfList)
		lists.With(manageContent).Post("/", s.CreateList)
		lists.With(manageContent).Put("/{id}", s.UpdateList)
		lists.With(manageContent).Delete("/{id}", s.DeleteList)
		lists.With(manageContent).Post("/{id}/exercicios", s.AddExerciseToList)
	})

	r.Route("/turmas", func(turmas chi.Router) {
		turmas.Use(auth)
		turmas.With(RequirePermission(services.OpCreateTurma)).Post("/", s.CreateTurma)
		turmas.With(reports).Get("/", s.ListTurmas)
		turmas.Get("/usuario/minhas", s.MyTurmas)
		turmas.Post("/entrar", s.JoinTurma)
		turmas.Get("/{id}", s.GetTurma)
		turmas.Get("/{id}/alunos", s.TurmaStudents)
		turmas.Get("/{id}/professores", s.TurmaTeachers)
		turmas.Group(func(manage chi.Router) {
			manage.Use(RequirePermission(services.OpManageRoster))
			manage.Put("/{id}", s.UpdateTurma)
			manage.Delete("/{id}", s.DeleteTurma)
			manage.Post("/{id}/alunos", s.AddStudent)
			manage.Delete("/{id}/alunos/{id_usuario}", s.RemoveStudent)
			manage.Post("/{id}/professores", s.AddTeacher)
			manage.Delete("/{id}/professores/{id_usuario}", s.RemoveTeacher)
		})
	})

	r.Route("/mapas", func(maps chi.Router) {
		maps.Use(auth)
		maps.With(readContent).Get("/", s.ListMaps)
		maps.With(readContent).Get("/{id}", s.GetMap)
		maps.With(manageContent).Post("/", s.CreateMap)
		maps.With(manageContent).Put("/{id}", s.UpdateMap)
		maps.With(manageContent).Delete("/{id}", s.DeleteMap)
	})

	r.Route("/respostas", func(answers chi.Router) {
		answers.Use(auth)
		answers.With(reports).Get("/exercicio/{id}", s.AnswersByExercise)
		answers.Group(func(own chi.Router) {
			own.Use(RequirePermission(services.OpSubmitAnswer))
			own.Post("/", s.SubmitAnswer)
			own.Get("/minhas", s.MyAnswers)
			own.Put("/{id}", s.UpdateAnswer)
			own.Delete("/{id}", s.DeleteAnswer)
		})
	})

	r.Route("/relatorios", func(rep chi.Router) {
		rep.Use(auth)
		rep.Use(reports)
		rep.Get("/dashboard", s.Dashboard)
		rep.Get("/turmas/{id}/estatisticas", s.TurmaStatistics)
		rep.Get("/distribuicao-dificuldade", s.DifficultyDistribution)
		rep.Get("/top-mapas", s.TopMaps)
		rep.Get("/{nome}", s.ReportView)
		rep.Get("/{nome}/export", s.ExportReport)
	})

	return otelhttp.NewHandler(r, "edutech-http")
}
