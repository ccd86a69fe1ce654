package main

import (
	"context"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gin-gonic/gin"

	"github.com/rawblock/ord-engine/internal/api"
	"github.com/rawblock/ord-engine/internal/ord/events"
	"github.com/rawblock/ord-engine/internal/ord/metaprotocol"
	"github.com/rawblock/ord-engine/internal/ord/objectstore"
	"github.com/rawblock/ord-engine/internal/ord/store"
	"github.com/rawblock/ord-engine/internal/ord/txprocessor"
)

// wireTx is the JSON shape /tx/process accepts: hex-encoded txid plus
// already-parsed inputs/outputs. Decoding raw transaction bytes into
// this shape is left to a real chain-data collaborator.
type wireTx struct {
	Txid    string        `json:"txid"`
	Inputs  []wireInput   `json:"inputs"`
	Outputs []wireOutput  `json:"outputs"`
}

type wireInput struct {
	Witness    []string `json:"witness"`
	PrevValue  uint64   `json:"prevValue"`
}

type wireOutput struct {
	Value        uint64 `json:"value"`
	ScriptPubKey string `json:"scriptPubKey"`
}

var errInvalidTxid = errors.New("txid must be 32 bytes hex-encoded")

func main() {
	log.Println("Starting Ordinals indexing core (ord-engine)...")

	dbURL := os.Getenv("DATABASE_URL")
	var objStore *objectstore.PostgresStore
	if dbURL != "" {
		conn, err := objectstore.Connect(context.Background(), dbURL)
		if err != nil {
			log.Printf("Warning: failed to connect to PostgreSQL, continuing without persistence. Error: %v", err)
		} else {
			objStore = conn
			defer objStore.Close()
			if err := objStore.InitSchema(context.Background()); err != nil {
				log.Printf("Warning: schema init failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set — running with in-memory store only")
	}

	network := getEnvOrDefault("BITCOIN_NETWORK", "mainnet")
	params := paramsForNetwork(network)

	st := store.New()
	hub := events.NewHub()
	go hub.Run()

	registry := metaprotocol.NewRegistry()

	proc := txprocessor.New(st, hub, nil, params)

	limiter := api.NewRateLimiter(120, 30)

	r := gin.Default()
	r.Use(limiter.Middleware())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":              "ok",
			"nextSequenceNumber":  st.NextSequenceNumber(),
			"blessedCount":        st.BlessedCount(),
			"cursedCount":         st.CursedCount(),
		})
	})
	r.GET("/events/subscribe", func(c *gin.Context) {
		hub.Subscribe(c.Writer, c.Request)
	})
	r.GET("/metaprotocols/:name/count", func(c *gin.Context) {
		if objStore == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence unavailable"})
			return
		}
		n, err := objStore.CountByMetaprotocol(c.Request.Context(), c.Param("name"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"metaprotocol": c.Param("name"), "count": n})
	})
	r.GET("/metaprotocols", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"names": registry.Names()})
	})
	r.POST("/tx/process", api.AuthMiddleware(), func(c *gin.Context) {
		var body wireTx
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tx, inputValues, err := decodeWireTx(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		inscriptions, points := proc.ProcessTransaction(tx, inputValues)
		results := make([]gin.H, len(inscriptions))
		for i, insc := range inscriptions {
			results[i] = gin.H{
				"inscriptionId":     insc.ID().String(),
				"sequenceNumber":    insc.SequenceNumber,
				"inscriptionNumber": insc.Number(),
				"objectId":          insc.ObjectID.String(),
				"owner":             insc.Owner,
				"outputIndex":       points[i].OutputIndex,
				"offset":            points[i].Offset,
			}
			if objStore != nil {
				if err := objStore.SaveInscription(c.Request.Context(), st.ID(), insc); err != nil {
					log.Printf("Warning: failed to persist inscription %s: %v", insc.ID(), err)
				}
			}
		}
		c.JSON(http.StatusOK, gin.H{"inscriptions": results})
	})

	port := getEnvOrDefault("PORT", "5353")
	log.Printf("ord-engine listening on :%s (network=%s)\n", port, network)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// decodeWireTx converts the HTTP-layer hex-encoded transaction view
// into the core's Tx shape and the parallel input-value slice
// ProcessTransaction needs for its offset accumulator.
func decodeWireTx(body wireTx) (txprocessor.Tx, []uint64, error) {
	txidBytes, err := hex.DecodeString(body.Txid)
	if err != nil || len(txidBytes) != 32 {
		return txprocessor.Tx{}, nil, errInvalidTxid
	}
	var txid [32]byte
	copy(txid[:], txidBytes)

	inputs := make([]txprocessor.TxInput, len(body.Inputs))
	inputValues := make([]uint64, len(body.Inputs))
	for i, in := range body.Inputs {
		witness := make([][]byte, len(in.Witness))
		for j, w := range in.Witness {
			b, err := hex.DecodeString(w)
			if err != nil {
				return txprocessor.Tx{}, nil, err
			}
			witness[j] = b
		}
		inputs[i] = txprocessor.TxInput{Witness: witness}
		inputValues[i] = in.PrevValue
	}

	outputs := make([]txprocessor.TxOutput, len(body.Outputs))
	for i, out := range body.Outputs {
		script, err := hex.DecodeString(out.ScriptPubKey)
		if err != nil {
			return txprocessor.Tx{}, nil, err
		}
		outputs[i] = txprocessor.TxOutput{Value: out.Value, ScriptPubKey: script}
	}

	return txprocessor.Tx{Txid: txid, Inputs: inputs, Outputs: outputs}, inputValues, nil
}

func paramsForNetwork(name string) *chaincfg.Params {
	switch name {
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params
	case "signet":
		return &chaincfg.SigNetParams
	case "regtest":
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
