package phonebook_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spachava753/pbap/phonebook"
	"github.com/spachava753/pbap/store/opimd"
	"github.com/spachava753/pbap/store/sqlstore"
	"github.com/spachava753/pbap/vcard"
)

func composePullMissedCallsFromSQLite() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := sqlstore.Open(ctx, "pbap.db")
	if err != nil {
		return err
	}
	defer store.Close()

	provider := phonebook.New(store)
	buf := phonebook.NewBuffer()
	params := phonebook.Params{MaxCount: 10, Format: vcard.V30, Filter: vcard.FilterTel | vcard.FilterCallDatetime}
	req, err := provider.Pull(ctx, phonebook.ObjectMissed, params, buf)
	if err != nil {
		return err
	}
	defer req.Finalize()

	if err := buf.Wait(ctx); err != nil {
		return err
	}
	contacts, newMissed := buf.Result()
	fmt.Printf("%d calls, %d new\n", contacts, newMissed)
	_, err = os.Stdout.Write(buf.Bytes())
	return err
}

func composeListThenPullEntryFromOpimd() error {
	ctx := context.Background()

	backend, err := opimd.Dial(ctx, "system")
	if err != nil {
		return err
	}
	defer backend.Close()
	provider := phonebook.New(backend)

	folder, err := provider.SetFolder(phonebook.FolderTelecom, "pb", phonebook.FlagDown)
	if err != nil {
		return err
	}

	cache := phonebook.NewCache()
	listReq, err := provider.CreateCache(ctx, folder, cache)
	if err != nil {
		return err
	}
	defer listReq.Finalize()
	if err := cache.Wait(ctx); err != nil {
		return err
	}
	os.Stdout.Write(vcard.MarshalListing(cache.Listing(0, phonebook.DefaultMaxCount)))

	id, err := cache.LookupName("1.vcf")
	if err != nil {
		return err
	}
	buf := phonebook.NewBuffer()
	entryReq, err := provider.GetEntry(ctx, folder, id, phonebook.DefaultParams(), buf)
	if err != nil {
		return err
	}
	defer entryReq.Finalize()
	return buf.Wait(ctx)
}

func composePhonebookSize(b phonebook.Backend) (int, error) {
	buf := phonebook.NewBuffer()
	req, err := phonebook.New(b).Pull(context.Background(), phonebook.ObjectPB, phonebook.Params{}, buf)
	if err != nil {
		return 0, err
	}
	defer req.Finalize()
	if err := buf.Wait(context.Background()); err != nil {
		return 0, err
	}
	n, _ := buf.Result()
	return n, nil
}
