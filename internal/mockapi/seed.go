package mockapi

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/soporte/internal/auth"
	"github.com/erazemk/soporte/internal/model"
)

// lookupWrapped marks the lookup lists answered as {"data": [...]}.
var lookupWrapped = map[string]bool{
	"/areas":           true,
	"/projects":        true,
	"/tipos-cita":      true,
	"/internal-states": true,
	"/types":           true,
}

func (s *Server) seedLookups() {
	s.clients = []model.Client{
		{ID: 1, DNI: "45879632", Names: "Juan Quispe", Cellphone: "987654321", Email: "juan@example.com", BusinessName: "Inmobiliaria Los Andes SAC"},
		{ID: 2, DNI: "20547896", Names: "María Torres", Cellphone: "912345678", Email: "maria@example.com", BusinessName: "Constructora Pacífico EIRL"},
		{ID: 3, DNI: "70125489", Names: "Luis Huamán", Cellphone: "998877665", Email: "luis@example.com", BusinessName: "Luis Huamán"},
	}

	clients := make([]map[string]any, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, map[string]any{"id_cliente": c.ID, "Razon_Social": c.BusinessName})
	}

	s.lookups = map[string][]map[string]any{
		"/areas": {
			{"id_area": 1, "descripcion": "Ventas"},
			{"id_area": 2, "descripcion": "Post venta"},
			{"id_area": 3, "descripcion": "Legal"},
		},
		"/clients": clients,
		"/projects": {
			{"id_proyecto": 1, "descripcion": "Residencial Los Pinos"},
			{"id_proyecto": 2, "descripcion": "Condominio El Sol"},
		},
		"/motivos-cita": {
			{"id_motivos_cita": 1, "descripcion": "Entrega de lote"},
			{"id_motivos_cita": 2, "descripcion": "Consulta de pagos"},
		},
		"/tipos-cita": {
			{"id_tipo_cita": 1, "descripcion": "Presencial"},
			{"id_tipo_cita": 2, "descripcion": "Virtual"},
		},
		"/dias-espera": {
			{"id_dias_espera": 1, "descripcion": "1 día"},
			{"id_dias_espera": 2, "descripcion": "3 días"},
			{"id_dias_espera": 3, "descripcion": "7 días"},
		},
		"/internal-states": {
			{"id": 1, "description": "Abierto"},
			{"id": 2, "description": "En proceso"},
			{"id": 3, "description": "Cerrado"},
		},
		"/external-states": {
			{"id": 1, "description": "Recibido"},
			{"id": 2, "description": "Atendido"},
		},
		"/types": {
			{"id": 1, "name": "Garantía"},
			{"id": 2, "name": "Documentación"},
		},
	}
}

// AddUser stores a user with a bcrypt-hashed password.
func (s *Server) AddUser(u model.User, password string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID()
	u.Password = ""
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = &now, &now
	s.passwords[u.ID] = hash
	s.users.insert(u)
	return u, nil
}

// IssueToken signs a token for the user with email, as login would.
func (s *Server) IssueToken(email string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	var id int64
	for _, u := range s.users.items {
		if u.Email == email {
			id = u.ID
			break
		}
	}
	s.mu.Unlock()
	if id == 0 {
		return "", fmt.Errorf("no user %s", email)
	}
	return auth.GenerateToken(s.secret, id, email, ttl)
}

// AddProducts stores n numbered products and returns them oldest first.
func (s *Server) AddProducts(n int) []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Product, 0, n)
	for i := 0; i < n; i++ {
		id := s.nextID()
		p := model.Product{
			ID:          id,
			Description: fmt.Sprintf("Producto %d", id),
			Brand:       "Genérica",
			Quantity:    i%5 + 1,
			Price:       model.Amount(10 * (i + 1)),
			State:       model.ProductStates[i%len(model.ProductStates)],
		}
		s.products.insert(p)
		out = append(out, p)
	}
	return out
}

// AddTransfer stores a transfer.
func (s *Server) AddTransfer(t model.Transfer) model.Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID()
	s.transfers.insert(t)
	return t
}

// AddArticles stores n articles on transfer transferID.
func (s *Server) AddArticles(transferID int64, n int) []model.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Article, 0, n)
	for i := 0; i < n; i++ {
		a := model.Article{
			ID:         s.nextID(),
			TransferID: transferID,
			Title:      fmt.Sprintf("Artículo %d", i+1),
			Quanty:     1,
		}
		s.articles.insert(a)
		out = append(out, a)
	}
	return out
}

// AddSupport stores a ticket for client clientID with one detail.
func (s *Server) AddSupport(clientID int64, subject string) model.Support {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup := model.Support{
		ID:        s.nextID(),
		ClientID:  clientID,
		Cellphone: "900000000",
	}
	if c := s.clientByID(clientID); c != nil {
		cc := *c
		sup.Client = &cc
	}
	sup.Details = []model.SupportDetail{{
		ID:        s.nextID(),
		SupportID: sup.ID,
		Subject:   subject,
		Priority:  model.PriorityNormal,
		Type:      model.DetailTypeQuery,
		Status:    model.DetailStatusPending,
	}}
	s.supports.insert(sup)
	return sup
}

// SeedDemo fills every collection with sample data for local development.
func (s *Server) SeedDemo() {
	s.AddProducts(35)
	for i := 1; i <= 12; i++ {
		t := s.AddTransfer(model.Transfer{
			Description:       fmt.Sprintf("Transferencia %d", i),
			SenderFirstname:   "Ana",
			SenderLastname:    "Pérez",
			ReceiverFirstname: "Carlos",
			ReceiverLastname:  "Ramos",
		})
		s.AddArticles(t.ID, i%4+1)
	}
	subjects := []string{"Fuga de agua", "Entrega de llaves", "Consulta de pagos", "Documentos de lote"}
	for i := 0; i < 14; i++ {
		s.AddSupport(int64(i%3+1), subjects[i%len(subjects)])
	}
}
