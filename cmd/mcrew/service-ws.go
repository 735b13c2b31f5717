package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	. "github.com/Comcast/tandem/util/testutil"

	"github.com/gorilla/websocket"
)

// WebSocketService handles SOps at /ws/api.  Every connection sees
// every op (before and after) done by anybody.
func (s *Service) WebSocketService(ctx context.Context, mux *http.ServeMux) error {

	s.ops = make(chan interface{}, 1024)

	var upgrader = websocket.Upgrader{} // use default options

	conns := sync.Map{}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case x := <-s.ops:
				conns.Range(func(k, v interface{}) bool {
					s.trf("fowarding op %s", JS(x))
					c := v.(chan interface{})
					select {
					case c <- x:
					default:
						log.Printf("%v ops blocked", k)
					}
					return true
				})
			}
		}

	}()

	api := func(w http.ResponseWriter, r *http.Request) {
		s.trf("Service.WebSocketService connection")

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error", err)
			return
		}
		defer c.Close()

		ctl := make(chan bool)
		defer close(ctl)

		in := make(chan interface{}, 32)

		id := c.RemoteAddr().String()
		conns.Store(id, in)
		defer conns.Delete(id)

		// Only this goroutine writes to c.
		go func() {
			mt := websocket.TextMessage

		LOOP:
			for {
				select {
				case <-ctl:
					break LOOP
				case <-ctx.Done():
					break LOOP
				case x := <-in:
					js, err := json.Marshal(&x)
					if err != nil {
						log.Printf("ops Marshal error %v on %#v", err, x)
						continue
					}
					if err = c.WriteMessage(mt, js); err != nil {
						log.Println("ops write:", err)
					}
				}
			}
		}()

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				s.trf("read error %v", err)
				break
			}

			var op SOp
			if err := json.Unmarshal(message, &op); err != nil {
				x := map[string]interface{}{
					"err": fmt.Sprintf("can't parse: %v", err),
				}
				select {
				case in <- x:
				default:
				}
				continue
			}
			if err = op.Do(ctx, s); err != nil {
				s.trf("op.Do error %v", err)
				// Conveyed via the "did" op.
			}
		}
	}

	mux.HandleFunc("/ws/api", api)

	return nil
}
