package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/room"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  room                       show the room
  me                         show your coins and items
  sell ITEM                  auction one of your items (number from "me")
  bid AMOUNT                 bid on the active auction
  skip                       pass your selling turn
  slot SLOT ITEM [ANSWER]    put ITEM in worksheet SLOT ("clear" empties it)
  answer SLOT ANSWER         write the answer for SLOT
  memo ITEM TEXT             annotate one of your items
  quit
`

// console turns typed commands into participant intents.
type console struct {
	p   *room.Participant
	out io.Writer
}

func (c *console) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "help", "?":
		_, err := io.WriteString(c.out, helpText)
		return err
	case "quit", "exit":
		return errQuit
	case "room":
		_, err := io.WriteString(c.out, renderRoom(c.p.Mirror(), c.p.StudentID()))
		return err
	case "me":
		me, ok := c.p.Me()
		if !ok {
			return room.ErrNotJoined
		}
		_, err := io.WriteString(c.out, renderStudent(me))
		return err
	case "sell":
		if len(args) != 1 {
			return errors.New("usage: sell ITEM")
		}
		item, err := c.item(args[0])
		if err != nil {
			return err
		}
		return c.p.StartAuction(ctx, item.ID)
	case "bid":
		if len(args) != 1 {
			return errors.New("usage: bid AMOUNT")
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		return c.p.PlaceBid(ctx, amount)
	case "skip":
		return c.p.SkipTurn(ctx)
	case "slot":
		if len(args) < 2 {
			return errors.New("usage: slot SLOT ITEM [ANSWER]")
		}
		slot, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		var instance auction.OptionalID
		if strings.EqualFold(args[1], "clear") {
			instance = auction.Clear()
		} else {
			item, err := c.item(args[1])
			if err != nil {
				return err
			}
			instance = auction.Assign(item.ID)
		}
		var answer *string
		if len(args) > 2 {
			text := strings.Join(args[2:], " ")
			answer = &text
		}
		return c.p.UpdateWorksheet(ctx, slot, instance, answer)
	case "answer":
		if len(args) < 2 {
			return errors.New("usage: answer SLOT ANSWER")
		}
		slot, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")
		return c.p.UpdateWorksheet(ctx, slot, auction.OptionalID{}, &text)
	case "memo":
		if len(args) < 2 {
			return errors.New("usage: memo ITEM TEXT")
		}
		item, err := c.item(args[0])
		if err != nil {
			return err
		}
		return c.p.UpdateMemo(ctx, item.ID, strings.Join(args[1:], " "))
	default:
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}
}

// item resolves a 1-based inventory number.
func (c *console) item(arg string) (*models.SentenceInstance, error) {
	me, ok := c.p.Me()
	if !ok {
		return nil, room.ErrNotJoined
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(me.Inventory) {
		return nil, fmt.Errorf("no item %q, you hold %d", arg, len(me.Inventory))
	}
	return me.Inventory[n-1], nil
}

// parseSlot turns a 1-based slot number into a worksheet index.
func parseSlot(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid slot %q", arg)
	}
	return n - 1, nil
}

func renderRoom(r *models.Room, me string) string {
	if r == nil {
		return "no snapshot yet\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "room %s [%s] %s\n", r.Code, r.Status, r.Mode)
	for i, s := range r.Students {
		marker := " "
		if s.ID == me {
			marker = "*"
		}
		turn := ""
		if r.Status == models.RoomStatusMarket && i == r.CurrentSellerIndex {
			turn = "  <- selling"
		}
		fmt.Fprintf(&b, "%s %-12s coins=%-6d items=%-3d score=%d%s\n", marker, s.Nickname, s.Coins, len(s.Inventory), s.Score, turn)
	}
	if a := r.ActiveAuction; a != nil {
		fmt.Fprintf(&b, "auction: %q from %s", a.Text, a.SellerNickname)
		if a.HighestBid != nil {
			fmt.Fprintf(&b, ", highest %d by %s", a.HighestBid.Amount, a.HighestBid.Nickname)
		} else {
			b.WriteString(", no bids")
		}
		if a.TimeLeft > 0 {
			fmt.Fprintf(&b, ", %ds left", a.TimeLeft)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderStudent(s *models.Student) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d coins, %d bids, %d sales\n", s.Nickname, s.Coins, s.BidCount, s.SaleCount)
	for i, it := range s.Inventory {
		slot := ""
		if it.AssignedSlot != nil {
			slot = fmt.Sprintf(" [slot %d]", *it.AssignedSlot+1)
		}
		memo := ""
		if it.Memo != "" {
			memo = " (" + it.Memo + ")"
		}
		fmt.Fprintf(&b, "  %d. %s%s%s\n", i+1, it.Text, slot, memo)
	}
	return b.String()
}
