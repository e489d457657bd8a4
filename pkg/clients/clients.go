package clients

import (
	"fmt"
	"sync"

	"github.com/cbodonnell/cabinet/pkg/log"
)

const (
	// ClientIDMaxRetries represents the maximum number of retries when generating a unique ID
	ClientIDMaxRetries = 1024
	// OutboxSize is the number of lines a slow client may fall behind by
	OutboxSize = 64
)

// Client represents a connected cabinet
type Client struct {
	ID     uint32
	Remote string
	// Outbox carries the lines to send; it is closed when the client is removed
	Outbox chan string
}

// ClientManager manages connected clients
type ClientManager struct {
	clients     map[uint32]*Client
	clientsLock sync.RWMutex
	nextID      uint32
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uint32]*Client),
		nextID:  1,
	}
}

// GetClients returns a list of all connected clients
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	return clients
}

// AddClient adds a new client to the manager
func (cm *ClientManager) AddClient(remote string) (*Client, error) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	clientID, err := cm.GenerateUniqueID(ClientIDMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	client := &Client{
		ID:     clientID,
		Remote: remote,
		Outbox: make(chan string, OutboxSize),
	}
	cm.clients[clientID] = client
	return client, nil
}

// RemoveClient removes a client from the manager and closes its outbox.
func (cm *ClientManager) RemoveClient(clientID uint32) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if client, exists := cm.clients[clientID]; exists {
		delete(cm.clients, clientID)
		close(client.Outbox)
	}
}

// Broadcast queues line for every client. A client whose outbox is full
// misses the line.
func (cm *ClientManager) Broadcast(line string) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	for _, client := range cm.clients {
		select {
		case client.Outbox <- line:
		default:
			log.Warn("Client %d is too slow, dropping %q", client.ID, line)
		}
	}
}

// GetClientByID retrieves a client by its ID
func (cm *ClientManager) GetClientByID(clientID uint32) *Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return cm.clients[clientID]
}

// GenerateUniqueID generates a unique client ID with a maximum number of retries
// it reads from the clients, so it needs to be locked before calling
func (cm *ClientManager) GenerateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := cm.nextID
		if _, ok := cm.clients[id]; !ok {
			cm.nextID++
			return id, nil
		}
		cm.nextID++
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
