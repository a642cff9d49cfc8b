package leaderboard

import (
	"errors"
	"testing"
)

var rows = []Row{
	{Bettor: "alice", Volume: "1000000000000000000000", Trades: 8, WinningTrades: 5, TotalPayout: "10"},
	{Bettor: "bob", Volume: "500", Trades: 5, WinningTrades: 4, TotalPayout: "0"},
	{Bettor: "carol", Volume: "999999999999999999999999", Trades: 1, WinningTrades: 1, TotalPayout: "0"},
	{Bettor: "dave", Volume: "500", Trades: 6, WinningTrades: 3, TotalPayout: "0"},
}

func TestRankByVolume(t *testing.T) {
	got, err := Rank(rows, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"carol", "alice", "bob", "dave"}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i, w := range want {
		if got[i].Bettor != w || got[i].Rank != i+1 {
			t.Errorf("#%d = %s (rank %d), want %s", i, got[i].Bettor, got[i].Rank, w)
		}
	}
}

func TestRankByAccuracy(t *testing.T) {
	got, err := Rank(rows, SortAccuracy, 2)
	if err != nil {
		t.Fatal(err)
	}
	// carol tem 100% mas só 1 trade
	if len(got) != 2 || got[0].Bettor != "bob" || got[1].Bettor != "alice" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Accuracy != "80.00" || got[1].Accuracy != "62.50" {
		t.Errorf("accuracy = %s, %s", got[0].Accuracy, got[1].Accuracy)
	}
}

func TestRankRejectsUnknownSort(t *testing.T) {
	if _, err := Rank(rows, "profit", 0); !errors.Is(err, ErrUnknownSort) {
		t.Errorf("err = %v", err)
	}
}
