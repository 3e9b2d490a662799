package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/olekukonko/tablewriter"

	"chatter-box/repositories"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	// Par défaut on cherche "msg:" pour éviter de percuter les index idx:
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, room:, member:, user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Entity ID", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Sécurité : on ignore explicitement les index secondaires
			if strings.HasPrefix(key, "idx:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				rowType, timestamp, entityID, detail, err := describe(key, v)
				if err != nil {
					// Au lieu de stopper tout le script, on log l'erreur et on continue
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				table.Append([]string{key, rowType, timestamp, entityID, detail})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func describe(key string, val []byte) (string, string, string, string, error) {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m repositories.DiskMessage
		if err := cbor.Unmarshal(val, &m); err != nil {
			return "", "", "", "", err
		}
		return "MESSAGE",
			time.Unix(0, m.At).Format("15:04:05"),
			fmt.Sprintf("%d", m.ID),
			fmt.Sprintf("%s: %s", m.Sender, m.Content),
			nil
	case strings.HasPrefix(key, "room:"):
		var r repositories.DiskRoom
		if err := cbor.Unmarshal(val, &r); err != nil {
			return "", "", "", "", err
		}
		return "ROOM",
			time.Unix(0, r.At).Format("15:04:05"),
			fmt.Sprintf("%d", r.ID),
			fmt.Sprintf("%s (creator %s)", r.Name, r.Creator),
			nil
	case strings.HasPrefix(key, "member:"):
		// Membership facts store the subject name as raw value.
		return "MEMBER", "--:--:--", "-", string(val), nil
	case strings.HasPrefix(key, "user:"):
		var u repositories.DiskUser
		if err := cbor.Unmarshal(val, &u); err != nil {
			return "", "", "", "", err
		}
		displayID := u.ID
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}
		return "USER",
			time.Unix(0, u.At).Format("15:04:05"),
			displayID,
			u.Username,
			nil
	default:
		return "RAW", "--:--:--", "-", fmt.Sprintf("%d bytes", len(val)), nil
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// Si corruption détectée, essaie un open en write pour truncate
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			// Ferme et réouvre en read-only
			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
